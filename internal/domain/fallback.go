package domain

// Built-in lists used when the shop is not connected or the API returned nothing.
// They are never empty.

var FallbackCategories = []FlatCategory{
	{ID: 2078, Name: "Digital Downloads > Graphics > Mockups"},
	{ID: 2079, Name: "Digital Downloads > Graphics > Clipart"},
	{ID: 2080, Name: "Digital Downloads > Templates"},
	{ID: 1, Name: "Craft Supplies & Tools > Patterns & How To"},
	{ID: 2, Name: "Art & Collectibles > Prints > Digital Prints"},
}

var FallbackShippingProfiles = []ShippingProfile{
	{ID: "digital", Title: "Digital download (no shipping)"},
	{ID: "standard", Title: "Standard shipping Sweden"},
	{ID: "international", Title: "International shipping"},
}

var FallbackReturnPolicies = []ReturnPolicy{
	{ID: "no_returns", Label: "No returns (digital products)"},
	{ID: "14_days", Label: "14 day return window"},
	{ID: "30_days", Label: "30 day return window"},
}
