package scanner

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geolink/edge-locator/internal/models"
)

// NmcliScanner retrieves nearby WiFi access points using nmcli.
type NmcliScanner struct {
	logger zerolog.Logger
}

// NewNmcliScanner creates an nmcli-backed scanner.
func NewNmcliScanner(logger zerolog.Logger) *NmcliScanner {
	return &NmcliScanner{logger: logger}
}

// Scan lists visible access points with their signal strength in dBm.
func (s *NmcliScanner) Scan(ctx context.Context) ([]models.NetworkObservation, error) {
	if _, err := exec.LookPath("nmcli"); err != nil {
		return nil, fmt.Errorf("nmcli not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, "nmcli", "-t", "-f", "BSSID,SIGNAL", "dev", "wifi", "list")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run nmcli: %w", err)
	}

	networks := parseNmcliOutput(output)
	s.logger.Debug().Int("count", len(networks)).Msg("WiFi scan completed")
	return networks, nil
}

// parseNmcliOutput extracts observations from terse-mode nmcli output, one
// "BSSID:SIGNAL" pair per line. Lines that do not parse are skipped.
func parseNmcliOutput(output []byte) []models.NetworkObservation {
	var networks []models.NetworkObservation
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		// Terse mode escapes the colons inside the BSSID, so the field
		// separator is the last unescaped colon on the line.
		line := strings.ReplaceAll(scanner.Text(), `\:`, "|")
		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			continue
		}
		macAddress := strings.ReplaceAll(strings.TrimSpace(parts[0]), "|", ":")
		if !isValidMAC(macAddress) {
			continue
		}
		signal, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		networks = append(networks, models.NetworkObservation{
			MACAddress:        macAddress,
			SignalStrengthDbm: percentToDbm(signal),
		})
	}
	return networks
}

// percentToDbm converts nmcli's 0-100 signal quality to an approximate dBm
// value in the -100..-50 range.
func percentToDbm(percent int) int {
	return percent/2 - 100
}

// isValidMAC checks that the MAC address is six colon-separated hex octets.
func isValidMAC(mac string) bool {
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return false
	}
	for _, part := range parts {
		if len(part) != 2 {
			return false
		}
		if _, err := strconv.ParseUint(part, 16, 8); err != nil {
			return false
		}
	}
	return true
}
