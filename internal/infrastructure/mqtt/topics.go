package mqtt

import "fmt"

// Topic prefixes for the eclipseq topic hierarchy.
//
// All topics share the flat scheme: eclipseq/{category}/...
const (
	// TopicPrefix is the base for all eclipseq topics.
	TopicPrefix = "eclipseq"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "eclipseq/system"
)

// Topics provides builders for eclipseq MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	progress := topics.RunProgress("run-9f3a21bc")
//	// Returns: "eclipseq/run/run-9f3a21bc/progress"
type Topics struct{}

// RunProgress returns the topic carrying per-dispatch progress events
// for a run.
//
// Example: eclipseq/run/run-9f3a21bc/progress
func (Topics) RunProgress(runID string) string {
	return fmt.Sprintf("%s/run/%s/progress", TopicPrefix, runID)
}

// RunStatus returns the retained topic carrying the latest run summary.
// New subscribers immediately see where the run stands.
//
// Example: eclipseq/run/run-9f3a21bc/status
func (Topics) RunStatus(runID string) string {
	return fmt.Sprintf("%s/run/%s/status", TopicPrefix, runID)
}

// SystemStatus returns the topic for online/offline status, including
// the Last Will and Testament message.
//
// Example: eclipseq/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
