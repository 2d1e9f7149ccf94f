package main

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config file, bad flags)
	ExitPartial     = 3 // Crawl finished but some papers failed
)
