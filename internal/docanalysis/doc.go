// Package docanalysis submits documents to the analysis provider and maps
// its status reports onto the poller's state machine so long-running
// analyses can be driven to completion.
package docanalysis
