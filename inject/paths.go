package inject

import (
	"os"
	"path/filepath"

	"winshield/shared"
)

// Artifacts resolves agent and launcher file paths inside a deployment
// directory, normally the directory holding the controller executable.
type Artifacts struct {
	Dir string
}

// ArtifactsBesideExecutable builds an Artifacts rooted at the running
// executable's directory.
func ArtifactsBesideExecutable() (Artifacts, error) {
	exe, err := os.Executable()
	if err != nil {
		return Artifacts{}, opErr("resolve artifacts", KindEnvironment, err)
	}
	return Artifacts{Dir: filepath.Dir(exe)}, nil
}

// AgentPath returns the deployed agent DLL for the given target bitness.
// When the bitness-suffixed file is absent the legacy single name is
// accepted instead. A KindEnvironment error means nothing usable is
// deployed.
func (a Artifacts) AgentPath(bits int) (string, error) {
	p := filepath.Join(a.Dir, shared.AgentFileName(bits))
	if fileExists(p) {
		return p, nil
	}
	legacy := filepath.Join(a.Dir, shared.AgentLegacyDLL)
	if fileExists(legacy) {
		return legacy, nil
	}
	return "", opErrf("resolve artifacts", KindEnvironment,
		"agent library %s not found in %s", shared.AgentFileName(bits), a.Dir)
}

// LauncherPath returns the deployed launcher executable for the given
// bitness, or a KindArchMismatch error when it is not there. The
// launcher is only ever needed for cross-bitness targets, so a missing
// file means that class of target cannot be served.
func (a Artifacts) LauncherPath(bits int) (string, error) {
	p := filepath.Join(a.Dir, shared.LauncherFileName(bits))
	if fileExists(p) {
		return p, nil
	}
	return "", opErrf("resolve artifacts", KindArchMismatch,
		"launcher %s not found in %s", shared.LauncherFileName(bits), a.Dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
