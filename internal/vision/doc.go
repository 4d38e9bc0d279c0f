// Package vision calls the hosted vision model that reads the task sheet.
// It owns prompt construction, transport retries, and the tolerant decoding
// of model output into the task tree.
package vision
