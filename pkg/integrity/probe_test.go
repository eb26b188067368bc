package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeCleanReport(t *testing.T) {
	probe := NewProbe(DefaultIndicatorTable())

	signals := probe.Evaluate(EnvironmentReport{
		ExistingPaths:     []string{"/system/bin/sh", "/system/framework/framework.jar"},
		InstalledPackages: []string{"com.example.attendance", "com.android.chrome"},
		BuildFingerprint:  "samsung/a52qnsxx/a52q:13/TP1A.220624.014:user/release-keys",
	})

	assert.False(t, signals.Rooted)
	assert.False(t, signals.MockLocationAppPresent)
	assert.False(t, signals.InstrumentationFrameworkPresent)
	assert.False(t, signals.RunningOnEmulator)
}

func TestProbeRootIndicators(t *testing.T) {
	probe := NewProbe(DefaultIndicatorTable())

	t.Run("su binary path", func(t *testing.T) {
		signals := probe.Evaluate(EnvironmentReport{
			ExistingPaths: []string{"/system/xbin/su"},
		})
		assert.True(t, signals.Rooted)
	})

	t.Run("root manager package", func(t *testing.T) {
		signals := probe.Evaluate(EnvironmentReport{
			InstalledPackages: []string{"com.topjohnwu.magisk"},
		})
		assert.True(t, signals.Rooted)
	})

	t.Run("failed probe assumes compromised", func(t *testing.T) {
		signals := probe.Evaluate(EnvironmentReport{RootProbeFailed: true})
		assert.True(t, signals.Rooted)
	})
}

func TestProbeMockLocationApp(t *testing.T) {
	probe := NewProbe(DefaultIndicatorTable())

	signals := probe.Evaluate(EnvironmentReport{
		InstalledPackages: []string{"com.lexa.fakegps"},
	})
	assert.True(t, signals.MockLocationAppPresent)
}

func TestProbeInstrumentationFramework(t *testing.T) {
	probe := NewProbe(DefaultIndicatorTable())

	t.Run("package substring", func(t *testing.T) {
		signals := probe.Evaluate(EnvironmentReport{
			InstalledPackages: []string{"de.robv.android.xposed.installer"},
		})
		assert.True(t, signals.InstrumentationFrameworkPresent)
	})

	t.Run("loaded library", func(t *testing.T) {
		signals := probe.Evaluate(EnvironmentReport{
			LoadedLibraries: []string{"libfrida-gadget.so"},
		})
		assert.True(t, signals.InstrumentationFrameworkPresent)
	})
}

func TestProbeEmulatorFingerprint(t *testing.T) {
	probe := NewProbe(DefaultIndicatorTable())

	signals := probe.Evaluate(EnvironmentReport{
		BuildFingerprint: "google/sdk_gphone_x86/generic_x86:11/RSR1.201013.001:userdebug/dev-keys",
	})
	assert.True(t, signals.RunningOnEmulator)

	// Empty fingerprint is not evidence either way.
	signals = probe.Evaluate(EnvironmentReport{})
	assert.False(t, signals.RunningOnEmulator)
}

func TestProbeSettingsFlagsPassThrough(t *testing.T) {
	probe := NewProbe(DefaultIndicatorTable())

	signals := probe.Evaluate(EnvironmentReport{
		DeveloperOptionsEnabled: true,
		USBDebuggingEnabled:     true,
		UnknownSourcesEnabled:   true,
		VPNActive:               true,
	})

	assert.True(t, signals.DeveloperOptionsEnabled)
	assert.True(t, signals.USBDebuggingEnabled)
	assert.True(t, signals.UnknownSourcesEnabled)
	assert.True(t, signals.VPNActive)
}

func TestProbeCustomTable(t *testing.T) {
	probe := NewProbe(IndicatorTable{
		RootPaths: []string{"/opt/custom/su"},
	})

	signals := probe.Evaluate(EnvironmentReport{
		// Default indicators are not consulted with a custom table.
		ExistingPaths: []string{"/system/xbin/su"},
	})
	assert.False(t, signals.Rooted)

	signals = probe.Evaluate(EnvironmentReport{
		ExistingPaths: []string{"/opt/custom/su"},
	})
	assert.True(t, signals.Rooted)
}
