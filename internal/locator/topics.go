package locator

import "fmt"

// Cross-node topic names, scoped by device id so one broker can serve many
// device/agent pairs.

// TopicRequestScan is sent agent to device to trigger a WiFi scan.
func TopicRequestScan(deviceID string) string {
	return fmt.Sprintf("locator/%s/request-scan", deviceID)
}

// TopicScanResult carries the device's observations back to the agent.
func TopicScanResult(deviceID string) string {
	return fmt.Sprintf("locator/%s/scan-result", deviceID)
}

// TopicLocateResult delivers the final result from agent to device.
func TopicLocateResult(deviceID string) string {
	return fmt.Sprintf("locator/%s/locate-result", deviceID)
}
