package vocab

// builtinCategories lists the built-in categories in table order.
var builtinCategories = []string{
	"Health",
	"Purchases",
	"Financial",
	"Location",
	"Contact Info",
	"User Content",
	"Search",
	"Browsing",
	"Identifiers",
	"Usage Data",
	"Sensitive Info",
	"Diagnostics",
	"Other Data",
}

var builtinTerms = map[string][]string{
	"Health": {
		"accelerometers",
		"active minutes",
		"activity tracking",
		"Apple HealthKit",
		"barometer",
		"calories",
		"device sensor data",
		"fitness",
		"food",
		"Google Fit",
		"gyroscopes",
		"health",
		"heart rate",
		"magnetometer",
		"motion",
		"pedometer",
		"sleep",
		"steps",
		"walk",
		"water",
		"weight",
	},
	"Purchases": {"purchases", "shopping", "spending"},
	"Financial": {
		"assets",
		"bank account",
		"card number",
		"credit score",
		"debts",
		"income",
		"payment",
		"payment service",
		"salary",
	},
	"Location": {
		"approximate",
		"bluetooth",
		"coarse",
		"GPS",
		"IP address",
		"location",
		"precise",
		"ultra wideband",
	},
	"Contact Info": {"name", "address", "email", "phone number", "text"},
	"User Content": {
		"audio",
		"capture",
		"chat",
		"customer support",
		"direct message",
		"email",
		"gameplay",
		"photos",
		"recordings",
		"text",
		"user content",
		"videos",
		"voice",
	},
	"Search": {"search", "history"},
	"Browsing": {
		"cookies",
		"browsing history",
		"third party tracking",
		"trackers",
	},
	"Identifiers": {
		"account ID",
		"advertising ID",
		"customer number",
		"device ID",
		"handle",
		"IMEI",
		"MAC address",
		"screen name",
		"serial number",
		"user name",
		"UUID",
	},
	"Usage Data": {
		"advertising",
		"analytics",
		"clicked",
		"engagement",
		"interact",
		"likes",
		"usage data",
		"user interaction",
		"viewed",
		"views",
	},
	"Sensitive Info": {
		"belief",
		"biometric",
		"childbirth",
		"disability",
		"ethnic",
		"genetic",
		"philosophical",
		"political",
		"pregnancy",
		"racial",
		"religious",
		"sensitive information",
		"sexual orientation",
		"union",
	},
	"Diagnostics": {"crash logs", "diagnostics", "energy use", "launch time"},
	"Other Data":  {"other data", "LiDAR", "lidar"},
}

// BuiltinCategories returns the built-in category names in table order.
func BuiltinCategories() []string {
	out := make([]string, len(builtinCategories))
	copy(out, builtinCategories)
	return out
}

// Builtin returns a copy of the built-in vocabulary.
func Builtin() Table {
	t := Table{}
	for _, cat := range builtinCategories {
		t.append(cat, builtinTerms[cat]...)
	}
	return t
}
