package integrity

import (
	"strings"
	"time"

	"github.com/gokaycavdar/go-trustguard/pkg/models"
)

// EnvironmentReport is the raw, platform-gathered material a Probe turns into
// IntegritySignals.
//
// The host integration enumerates what it found; the probe decides what it
// means. This keeps the evaluation algorithm decoupled from the indicator
// data, which is expected to evolve faster than the code.
type EnvironmentReport struct {
	// ExistingPaths are filesystem paths the platform confirmed to exist.
	ExistingPaths []string `json:"existing_paths"`

	// InstalledPackages are application package identifiers present on
	// the device.
	InstalledPackages []string `json:"installed_packages"`

	// LoadedLibraries are runtime-loaded native/managed library names.
	LoadedLibraries []string `json:"loaded_libraries"`

	// BuildFingerprint is the platform build identification string.
	BuildFingerprint string `json:"build_fingerprint"`

	DeveloperOptionsEnabled bool `json:"developer_options_enabled"`
	USBDebuggingEnabled     bool `json:"usb_debugging_enabled"`
	UnknownSourcesEnabled   bool `json:"unknown_sources_enabled"`
	VPNActive               bool `json:"vpn_active"`

	// RootProbeFailed is set when the platform's root detection itself
	// errored. Failure of the tamper probe is treated as tampering.
	RootProbeFailed bool `json:"root_probe_failed"`

	// TakenAt is when the report was collected.
	TakenAt time.Time `json:"taken_at"`
}

// IndicatorTable holds the enumerations the probe matches a report against.
//
// The defaults cover the common cases; deployments facing new tooling swap
// in an extended table without touching the probe.
type IndicatorTable struct {
	// RootPaths existing on the device indicate root access.
	RootPaths []string

	// RootPackages installed on the device indicate root management tools.
	RootPackages []string

	// MockLocationPackages are known location-injection apps.
	MockLocationPackages []string

	// InstrumentationArtifacts are package or library names of runtime
	// instrumentation frameworks (matched as substrings).
	InstrumentationArtifacts []string

	// EmulatorFingerprints are build-fingerprint substrings of known
	// emulator images.
	EmulatorFingerprints []string
}

// DefaultIndicatorTable returns the built-in static table.
// Real deployments should extend this list as new tools appear.
func DefaultIndicatorTable() IndicatorTable {
	return IndicatorTable{
		RootPaths: []string{
			"/system/bin/su",
			"/system/xbin/su",
			"/sbin/su",
			"/system/app/Superuser.apk",
			"/system/bin/.ext/.su",
			"/data/local/xbin/su",
			"/data/local/bin/su",
			"/system/sd/xbin/su",
			"/data/adb/magisk",
		},
		RootPackages: []string{
			"com.topjohnwu.magisk",
			"eu.chainfire.supersu",
			"com.koushikdutta.superuser",
			"com.noshufou.android.su",
			"com.thirdparty.superuser",
		},
		MockLocationPackages: []string{
			"com.lexa.fakegps",
			"com.incorporateapps.fakegps.fre",
			"com.blogspot.newapphorizons.fakegps",
			"com.theappninjas.fakegpsjoystick",
			"ru.gavrikov.mocklocations",
			"com.evezzon.fakegps",
		},
		InstrumentationArtifacts: []string{
			"frida",
			"xposed",
			"de.robv.android.xposed",
			"com.saurik.substrate",
			"cydia",
		},
		EmulatorFingerprints: []string{
			"generic",
			"unknown",
			"google_sdk",
			"emulator",
			"sdk_gphone",
			"vbox86",
			"goldfish",
			"ranchu",
		},
	}
}

// Probe evaluates environment reports against an indicator table.
type Probe struct {
	table IndicatorTable
}

// NewProbe creates a probe with the given table.
// Use DefaultIndicatorTable() unless the deployment maintains its own.
func NewProbe(table IndicatorTable) *Probe {
	return &Probe{table: table}
}

// Evaluate derives integrity signals from a raw environment report.
//
// A failed root probe is reported as rooted - the tamper-critical checks
// default to "assume compromised", never to trust.
func (p *Probe) Evaluate(report EnvironmentReport) models.IntegritySignals {
	signals := models.IntegritySignals{
		DeveloperOptionsEnabled: report.DeveloperOptionsEnabled,
		USBDebuggingEnabled:     report.USBDebuggingEnabled,
		UnknownSourcesEnabled:   report.UnknownSourcesEnabled,
		VPNActive:               report.VPNActive,
		TakenAt:                 report.TakenAt,
	}

	signals.Rooted = report.RootProbeFailed ||
		containsAny(report.ExistingPaths, p.table.RootPaths) ||
		containsAny(report.InstalledPackages, p.table.RootPackages)

	signals.MockLocationAppPresent = containsAny(report.InstalledPackages, p.table.MockLocationPackages)

	signals.InstrumentationFrameworkPresent =
		matchesAnySubstring(report.InstalledPackages, p.table.InstrumentationArtifacts) ||
			matchesAnySubstring(report.LoadedLibraries, p.table.InstrumentationArtifacts)

	fingerprint := strings.ToLower(report.BuildFingerprint)
	for _, marker := range p.table.EmulatorFingerprints {
		if fingerprint != "" && strings.Contains(fingerprint, marker) {
			signals.RunningOnEmulator = true
			break
		}
	}

	return signals
}

func containsAny(haystack, needles []string) bool {
	if len(haystack) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(haystack))
	for _, h := range haystack {
		set[h] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; ok {
			return true
		}
	}
	return false
}

func matchesAnySubstring(haystack, markers []string) bool {
	for _, h := range haystack {
		lower := strings.ToLower(h)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return true
			}
		}
	}
	return false
}
