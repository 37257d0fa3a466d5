package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// MatchNameBriscola is the authoritative match handler name registered with Nakama.
	MatchNameBriscola = "briscola_match"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame      int64 = 1
	OpPlayCard       int64 = 2
	OpSwapTrump      int64 = 3
	OpRequestNewGame int64 = 4

	// Server -> Client events
	OpPlayerJoined  int64 = 101
	OpPlayerLeft    int64 = 102
	OpGameStarted   int64 = 103
	OpHandDealt     int64 = 104 // send privately
	OpCardPlayed    int64 = 105
	OpRoundResolved int64 = 106
	OpTrumpSwapped  int64 = 107
	OpGameEnded     int64 = 108
	OpStateSnapshot int64 = 109 // send privately, per-viewer redaction
	OpGameError     int64 = 110
	OpPlayBegan     int64 = 111
)
