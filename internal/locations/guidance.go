package locations

import "github.com/blueridgecivic/waterwatch-service/internal/domain"

// Activity is one recommendation line for a water activity under a status.
type Activity struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message"`
}

// Guidance bundles per-activity recommendations and safety tips for a
// status.
type Guidance struct {
	Activities map[string]Activity `json:"activities"`
	SafetyTips []string            `json:"safety_tips"`
}

var guidanceByStatus = map[domain.Status]Guidance{
	domain.StatusSafe: {
		Activities: map[string]Activity{
			"swimming": {Allowed: true, Message: "Swimming is safe and recommended"},
			"boating":  {Allowed: true, Message: "Boating is safe"},
			"fishing":  {Allowed: true, Message: "Fishing is safe"},
			"kayaking": {Allowed: true, Message: "Kayaking and paddling are safe"},
			"wading":   {Allowed: true, Message: "Wading is safe"},
		},
		SafetyTips: []string{
			"Always swim with a buddy",
			"Check weather conditions before going out",
			"Wear appropriate safety gear",
		},
	},
	domain.StatusCaution: {
		Activities: map[string]Activity{
			"swimming": {Allowed: false, Message: "Swimming not recommended - monitor conditions"},
			"boating":  {Allowed: true, Message: "Boating is generally safe"},
			"fishing":  {Allowed: true, Message: "Fishing is safe"},
			"kayaking": {Allowed: true, Message: "Kayaking is safe"},
			"wading":   {Allowed: false, Message: "Avoid wading - conditions may be unsafe"},
		},
		SafetyTips: []string{
			"Avoid contact with water if possible",
			"Monitor conditions closely",
			"Consider postponing water activities",
		},
	},
	domain.StatusWarning: {
		Activities: map[string]Activity{
			"swimming": {Allowed: false, Message: "Swimming is not recommended"},
			"boating":  {Allowed: true, Message: "Boating is safe but avoid contact with water"},
			"fishing":  {Allowed: true, Message: "Fishing is safe but avoid contact with water"},
			"kayaking": {Allowed: false, Message: "Kayaking not recommended"},
			"wading":   {Allowed: false, Message: "Wading is not recommended"},
		},
		SafetyTips: []string{
			"Avoid all water contact",
			"Keep pets away from water",
			"Do not drink or use water for cooking",
		},
	},
	domain.StatusUnsafe: {
		Activities: map[string]Activity{
			"swimming": {Allowed: false, Message: "Swimming is prohibited"},
			"boating":  {Allowed: false, Message: "Boating is not recommended"},
			"fishing":  {Allowed: false, Message: "Fishing is not recommended"},
			"kayaking": {Allowed: false, Message: "Kayaking is prohibited"},
			"wading":   {Allowed: false, Message: "Wading is prohibited"},
		},
		SafetyTips: []string{
			"Stay away from water completely",
			"Do not allow children or pets near water",
			"Contact local authorities if you see people in water",
		},
	},
}

// GuidanceFor returns the recommendations for a status. Unknown statuses
// fall back to the safe guidance, matching the default the UI has always
// shown.
func GuidanceFor(s domain.Status) Guidance {
	if g, ok := guidanceByStatus[s]; ok {
		return g
	}
	return guidanceByStatus[domain.StatusSafe]
}
