package app

const (
	// Name is the directory name used under the user config root.
	Name = "htgo"

	ConfigFilename = "config.json"
	LogFilename    = "htgo.log"
)
