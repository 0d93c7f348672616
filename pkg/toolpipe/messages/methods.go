package messages

// Method is the closed set of methods a tool host understands.
type Method int

const (
	// MethodUnknown is any method name outside the supported set.
	MethodUnknown Method = iota
	// MethodInitialize opens the capability handshake.
	MethodInitialize
	// MethodInitialized completes the handshake.
	MethodInitialized
	// MethodToolsList requests the tool catalog.
	MethodToolsList
	// MethodToolsCall invokes a tool.
	MethodToolsCall
)

// Wire names.
const (
	NameInitialize              = "initialize"
	NameInitialized             = "initialized"
	NameNotificationInitialized = "notifications/initialized"
	NameToolsList               = "tools/list"
	NameToolsCall               = "tools/call"
)

// ParseMethod maps a wire method name onto the closed method set.
func ParseMethod(name string) Method {
	switch name {
	case NameInitialize:
		return MethodInitialize
	case NameInitialized, NameNotificationInitialized:
		return MethodInitialized
	case NameToolsList:
		return MethodToolsList
	case NameToolsCall:
		return MethodToolsCall
	default:
		return MethodUnknown
	}
}

func (m Method) String() string {
	switch m {
	case MethodInitialize:
		return NameInitialize
	case MethodInitialized:
		return NameInitialized
	case MethodToolsList:
		return NameToolsList
	case MethodToolsCall:
		return NameToolsCall
	default:
		return "unknown"
	}
}
