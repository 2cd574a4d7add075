package render

// Environment describes where the process runs. It is built by the caller
// (see config.Render.Environment) and passed in explicitly.
type Environment struct {
	Serverless bool
	Local      bool
}

// IsServerless reports whether the constrained serverless profile applies.
// An explicit local flag always wins.
func (e Environment) IsServerless() bool {
	return e.Serverless && !e.Local
}

func (e Environment) String() string {
	if e.IsServerless() {
		return "serverless"
	}
	return "local"
}

// Viewport is a logical screen size with a device scale factor.
type Viewport struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DeviceScaleFactor float64 `json:"device_scale_factor"`
}

// RenderViewport is applied to every page before content is loaded.
var RenderViewport = Viewport{Width: 1200, Height: 1600, DeviceScaleFactor: 2}

// LaunchProfile holds the browser process parameters for one launch.
type LaunchProfile struct {
	// ExecutablePath is empty when the engine should discover an installed browser.
	ExecutablePath string    `json:"executable_path,omitempty"`
	Arguments      []string  `json:"arguments"`
	Headless       bool      `json:"headless"`
	Viewport       *Viewport `json:"viewport"`
}

// BrowserResolver locates a bundled browser binary for serverless runs.
// An empty path means none is available.
type BrowserResolver interface {
	ExecutablePath() string
}

// ResolverFunc adapts a function to BrowserResolver.
type ResolverFunc func() string

func (f ResolverFunc) ExecutablePath() string { return f() }

// localArguments trade the OS sandbox for portability across hosts and containers.
var localArguments = []string{
	"--no-sandbox",
	"--disable-setuid-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--single-process",
}

// LaunchProfileFor derives launch parameters from env. It never fails; the
// resolver is consulted only in the serverless branch.
func LaunchProfileFor(env Environment, resolver BrowserResolver) LaunchProfile {
	if env.IsServerless() {
		var path string
		if resolver != nil {
			path = resolver.ExecutablePath()
		}
		return LaunchProfile{
			ExecutablePath: path,
			Headless:       true,
		}
	}
	return LaunchProfile{
		Arguments: append([]string(nil), localArguments...),
		Headless:  true,
	}
}
