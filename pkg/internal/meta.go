package pkg

var (
	AppVersion = "1.0.0"
)
