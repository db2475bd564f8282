package form

import (
	"fmt"
	"net/url"
	"strconv"
)

// Navigation is the step position encoded in the intake page query:
// ?formStep=10&confirmation=true.
type Navigation struct {
	Step         int
	Confirmation bool
}

// Values encodes n as query values.
func (n Navigation) Values() url.Values {
	v := url.Values{}
	v.Set("formStep", strconv.Itoa(n.Step))
	if n.Confirmation {
		v.Set("confirmation", "true")
	}
	return v
}

// Query renders n as a query string with the leading '?'.
func (n Navigation) Query() string {
	q := "?formStep=" + strconv.Itoa(n.Step)
	if n.Confirmation {
		q += "&confirmation=true"
	}
	return q
}

// ParseNavigation decodes a query. A missing formStep means step 0.
func ParseNavigation(q url.Values) (Navigation, error) {
	var n Navigation
	if raw := q.Get("formStep"); raw != "" {
		step, err := strconv.Atoi(raw)
		if err != nil || step < 0 || step > TerminalStep {
			return Navigation{}, fmt.Errorf("invalid formStep %q", raw)
		}
		n.Step = step
	}
	switch q.Get("confirmation") {
	case "", "false", "0":
	case "true", "1":
		n.Confirmation = true
	default:
		return Navigation{}, fmt.Errorf("invalid confirmation flag %q", q.Get("confirmation"))
	}
	return n, nil
}
