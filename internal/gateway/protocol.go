package gateway

// Wire protocol: one JSON object per message, dispatched on "event".
//
//	{"event":"join","username":"ayse","group_name":"Vacation"}
//	{"event":"contribute","amount":50}
type event struct {
	Event     string `json:"event"`
	Username  string `json:"username"`
	GroupName string `json:"group_name"`
	Amount    int64  `json:"amount"`
}

type reply struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	NewTotal *int64 `json:"new_total,omitempty"`
}

func okJoined() reply { return reply{Status: "ok", Message: "joined"} }

func okTotal(total int64) reply { return reply{Status: "ok", NewTotal: &total} }

func errorReply(msg string) reply { return reply{Status: "error", Message: msg} }

const (
	msgMalformed     = "unknown or malformed event"
	msgMustJoinFirst = "must join a group first"
	msgServerBusy    = "server busy, try again later"
	msgStoreFault    = "temporary store error, try again"
	msgRateLimited   = "too many messages, slow down"
)
