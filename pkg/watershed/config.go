package watershed

import (
	"fmt"
	"strings"
)

// Method selects the watershed algorithm.
type Method int

const (
	// Rainfall assigns every pixel the minimum reached by steepest descent.
	Rainfall Method = iota
	// Immersion floods level by level and produces watershed lines.
	Immersion
)

// String returns the flag spelling of the method.
func (m Method) String() string {
	switch m {
	case Rainfall:
		return "rainfall"
	case Immersion:
		return "immersion"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Set implements pflag.Value.
func (m *Method) Set(s string) error {
	v, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (m *Method) Type() string { return "method" }

// ValidMethods returns the accepted method names.
func ValidMethods() []string {
	return []string{Rainfall.String(), Immersion.String()}
}

// ParseMethod converts a name from ValidMethods into a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rainfall", "rain":
		return Rainfall, nil
	case "immersion", "standard", "flooding":
		return Immersion, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownMethod, s, strings.Join(ValidMethods(), ", "))
	}
}

// Connectivity is the pixel neighborhood used for adjacency.
type Connectivity int

const (
	// Conn4 uses the horizontal and vertical neighbors.
	Conn4 Connectivity = 4
	// Conn8 adds the four diagonal neighbors.
	Conn8 Connectivity = 8
)

// String returns "4" or "8".
func (c Connectivity) String() string {
	return fmt.Sprintf("%d", int(c))
}

// Set implements pflag.Value.
func (c *Connectivity) Set(s string) error {
	v, err := ParseConnectivity(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Type implements pflag.Value.
func (c *Connectivity) Type() string { return "connectivity" }

// ValidConnectivities returns the accepted neighborhood sizes.
func ValidConnectivities() []string {
	return []string{Conn4.String(), Conn8.String()}
}

// ParseConnectivity accepts "4" or "8".
func ParseConnectivity(s string) (Connectivity, error) {
	switch strings.TrimSpace(s) {
	case "4":
		return Conn4, nil
	case "8":
		return Conn8, nil
	default:
		return 0, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownConnectivity, s, strings.Join(ValidConnectivities(), ", "))
	}
}

// Config holds the watershed settings.
type Config struct {
	// Method selects rainfall or immersion flooding.
	Method Method

	// Connectivity of the neighborhood used while flooding.
	Connectivity Connectivity

	// Threshold raises every elevation below it to the threshold, so shallow
	// noise valleys merge into one basin. 0 disables it.
	Threshold uint8

	// WatershedValue and BasinValue are the two values written by Lines.
	WatershedValue uint8
	BasinValue     uint8
}

// DefaultConfig returns rainfall on a 4-neighborhood with no noise threshold.
func DefaultConfig() Config {
	return Config{
		Method:         Rainfall,
		Connectivity:   Conn4,
		Threshold:      0,
		WatershedValue: 255,
		BasinValue:     0,
	}
}

// Validate reports whether the configuration can be used.
func (c Config) Validate() error {
	if c.Method != Rainfall && c.Method != Immersion {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Method)
	}
	if c.Connectivity != Conn4 && c.Connectivity != Conn8 {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidConfig, int(c.Connectivity))
	}
	return nil
}
