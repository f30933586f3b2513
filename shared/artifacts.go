package shared

import "fmt"

// File names of the deployable artifacts. Controller binaries look these
// up next to their own executable.
const (
	Agent64DLL = "wshield_agent64.dll"
	Agent32DLL = "wshield_agent32.dll"

	// AgentLegacyDLL is the old single-bitness agent name. It is still
	// accepted when the bitness-suffixed file is absent, and it is
	// always included in eviction scans so stale deployments get
	// cleaned up.
	AgentLegacyDLL = "wshield_agent.dll"

	Launcher64EXE = "wshield_launcher64.exe"
	Launcher32EXE = "wshield_launcher32.exe"
)

// AgentFileName returns the agent DLL name for a pointer width in bits.
func AgentFileName(bits int) string {
	switch bits {
	case 64:
		return Agent64DLL
	case 32:
		return Agent32DLL
	}
	panic(fmt.Sprintf("no agent artifact for %d-bit targets", bits))
}

// LauncherFileName returns the launcher executable name for a pointer
// width in bits.
func LauncherFileName(bits int) string {
	switch bits {
	case 64:
		return Launcher64EXE
	case 32:
		return Launcher32EXE
	}
	panic(fmt.Sprintf("no launcher artifact for %d-bit targets", bits))
}

// AgentFileNames lists every file name an agent module may be loaded
// under, current and legacy. Eviction matches against all of them.
func AgentFileNames() []string {
	return []string{Agent64DLL, Agent32DLL, AgentLegacyDLL}
}
