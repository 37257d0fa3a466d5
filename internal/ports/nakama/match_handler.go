package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"briscola/internal/app"
	"briscola/internal/bot"
	"briscola/internal/config"
	"briscola/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// tickRate is the match loop frequency registered with Nakama. All dwell
// timers are expressed in ticks derived from it.
const tickRate = 4

// MatchLabel is the JSON label the matchmaker queries on.
type MatchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Mode  string `json:"mode"`
	Phase string `json:"phase"`
}

// Client request payloads.
type StartGameRequest struct {
	Mode  string      `json:"mode"`
	Teams map[int]int `json:"teams,omitempty"`
}

type PlayCardRequest struct {
	CardID string `json:"card_id"`
}

type SwapTrumpRequest struct {
	CardID string `json:"card_id"`
}

// GameErrorEvent is sent privately to the player whose command was rejected.
type GameErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// LobbyStateEvent mirrors the seat arrangement to clients outside a game.
type LobbyStateEvent struct {
	Seats     []LobbySeat `json:"seats"`
	OwnerSeat int         `json:"owner_seat"`
}

type LobbySeat struct {
	Seat        int    `json:"seat"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	IsBot       bool   `json:"is_bot"`
	IsOwner     bool   `json:"is_owner"`
}

// pendingTimer is a scheduled host action bound to the game and round it was
// armed for. A fire with a stale binding is dropped, so a restarted or
// advanced game never receives a leftover timer.
type pendingTimer struct {
	FireAtTick int64
	GameID     string
	Round      int
	Phase      domain.Phase
}

func (pt *pendingTimer) matches(game *domain.Game) bool {
	return game != nil && game.ID == pt.GameID && game.Round == pt.Round && game.Phase == pt.Phase
}

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats     [4]string                   `json:"seats"`      // user IDs, empty string means seat is empty
	OwnerSeat int                         `json:"owner_seat"` // seat index of the match owner
	Starter   int                         `json:"starter"`    // game seat leading the next deal
	Tick      int64                       `json:"tick"`
	Presences map[string]runtime.Presence `json:"-"`
	App       *app.Service                `json:"-"`
	Game      *domain.Game                `json:"-"` // nil while in the lobby
	// PlayerSeats maps game seat index to the lobby occupant's user ID for
	// the current deal.
	PlayerSeats []string `json:"player_seats"`

	PendingResolve *pendingTimer `json:"-"`
	PendingReveal  *pendingTimer `json:"-"`

	BotsEnabled          bool                  `json:"bots_enabled"`
	BotMinDelay          int                   `json:"bot_min_delay"`
	BotMaxDelay          int                   `json:"bot_max_delay"`
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`
	BotWaitUntil         int64                 `json:"bot_wait_until"`
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"`
	Bots                 map[string]*bot.Agent `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// gameSeatOf returns the in-game seat for a user ID, or -1.
func (ms *MatchState) gameSeatOf(userID string) int {
	for seat, uid := range ms.PlayerSeats {
		if uid == userID {
			return seat
		}
	}
	return -1
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	minDelay, maxDelay := config.GetBotDelayBoundsSeconds()
	state := &MatchState{
		Tick:             time.Now().Unix(),
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(nil),
		OwnerSeat:        -1,
		Bots:             make(map[string]*bot.Agent),
		BotMinDelay:      minDelay,
		BotMaxDelay:      maxDelay,
		BotAutoFillDelay: config.GetBotAutoFillDelaySeconds(),
	}

	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["briscola_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["briscola_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["briscola_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["briscola_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}

	// Env overrides bypass the config accessors, so the delay window is
	// clamped here; rand.Intn panics on an inverted range.
	if state.BotMinDelay < 1 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}

	labelBytes, err := json.Marshal(&MatchLabel{
		Open:  state.GetOpenSeatsCount(),
		Game:  "briscola",
		Mode:  config.GetDefaultMode(),
		Phase: "lobby",
	})
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}

	return state, tickRate, string(labelBytes)
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// Allow join if there is an empty seat OR a bot to replace (if game hasn't started)
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		if matchState.Game == nil {
			for _, seat := range matchState.Seats {
				if isBotUserId(seat) {
					hasBot = true
					break
				}
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p

		// Assign seat: try empty seats first, then bots (if lobby).
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned && matchState.Game == nil {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, p.GetUserId(), i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", p.GetUserId())
			continue
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger, OpPlayerJoined)
	// Late joiners and reconnects get the redacted game view straight away.
	if matchState.Game != nil {
		mh.sendSnapshots(matchState, dispatcher, logger)
	}

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		for i, seatUserId := range matchState.Seats {
			if seatUserId != p.GetUserId() {
				continue
			}
			if matchState.Game != nil && matchState.Game.Phase != domain.PhaseEnded && matchState.BotsEnabled {
				// A bot takes over the seat so the deal can finish.
				identity := bot.GetBotIdentity(i)
				matchState.Seats[i] = identity.UserID
				matchState.Bots[identity.UserID] = bot.NewAgent(identity)
				if gameSeat := matchState.gameSeatOf(p.GetUserId()); gameSeat >= 0 {
					matchState.PlayerSeats[gameSeat] = identity.UserID
				}
				logger.Info("MatchLeave: Bot %s takes over seat %d from %s.", identity.UserID, i, p.GetUserId())
			} else {
				matchState.Seats[i] = ""
				logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), i)
			}
			break
		}
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastLobbyState(matchState, dispatcher, logger, OpPlayerLeft)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartGame:
			mh.handleStartGame(ctx, matchState, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ctx, matchState, dispatcher, logger, msg)
		case OpSwapTrump:
			mh.handleSwapTrump(ctx, matchState, dispatcher, logger, msg)
		case OpRequestNewGame:
			mh.handleRequestNewGame(ctx, matchState, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.fireTimers(ctx, matchState, dispatcher, logger)

	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// fireTimers runs any due dwell timer whose binding still matches the live
// game. Stale timers are discarded without effect.
func (mh *matchHandler) fireTimers(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if pt := state.PendingReveal; pt != nil && state.Tick >= pt.FireAtTick {
		state.PendingReveal = nil
		if pt.matches(state.Game) {
			events, err := state.App.BeginPlay(state.Game)
			if err != nil {
				logger.Error("fireTimers: BeginPlay failed: %v", err)
			} else {
				mh.broadcastEvents(ctx, state, dispatcher, logger, events)
			}
		} else {
			logger.Debug("fireTimers: Dropping stale reveal timer for game %s round %d.", pt.GameID, pt.Round)
		}
	}

	if pt := state.PendingResolve; pt != nil && state.Tick >= pt.FireAtTick {
		state.PendingResolve = nil
		if pt.matches(state.Game) {
			events, err := state.App.ResolveRound(state.Game)
			if err != nil {
				logger.Error("fireTimers: ResolveRound failed: %v", err)
			} else {
				mh.broadcastEvents(ctx, state, dispatcher, logger, events)
			}
		} else {
			logger.Debug("fireTimers: Dropping stale resolve timer for game %s round %d.", pt.GameID, pt.Round)
		}
	}
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill the lobby with bots if a single human waits too long.
	if state.Game == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay*tickRate) {
				added := false
				for i, seat := range state.Seats {
					if seat == "" {
						identity := bot.GetBotIdentity(i)
						state.Seats[i] = identity.UserID
						state.Bots[identity.UserID] = bot.NewAgent(identity)
						logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
						added = true
					}
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastLobbyState(state, dispatcher, logger, OpPlayerJoined)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			state.LastSinglePlayerTick = 0
		}
	}

	// 2. Handle bot turns in-game.
	if state.Game != nil && state.Game.Phase == domain.PhasePlaying {
		currentTurn := state.Game.CurrentTurn
		if currentTurn < 0 || currentTurn >= len(state.PlayerSeats) {
			return
		}
		currentUserID := state.PlayerSeats[currentTurn]

		if !isBotUserId(currentUserID) {
			state.BotWaitUntil = 0
			return
		}

		if state.BotWaitUntil == 0 {
			delay := rand.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
			state.BotWaitUntil = state.Tick + int64(delay*tickRate)
			logger.Debug("processBots: Bot %s (seat %d) will act at tick %d (current %d)", currentUserID, currentTurn, state.BotWaitUntil, state.Tick)
			return
		}
		if state.Tick < state.BotWaitUntil {
			return
		}
		state.BotWaitUntil = 0

		agent, exists := state.Bots[currentUserID]
		if !exists {
			agent = bot.NewAgent(bot.GetBotIdentity(currentTurn))
			state.Bots[currentUserID] = agent
		}

		move, err := agent.PlayAtSeat(state.Game, currentTurn)
		if err != nil {
			logger.Error("processBots: Bot %s failed to calculate move: %v", currentUserID, err)
			return
		}

		if move.SwapCardID != "" {
			if events, err := state.App.SwapTrump(state.Game, currentTurn, move.SwapCardID); err == nil {
				mh.broadcastEvents(ctx, state, dispatcher, logger, events)
			}
		}
		if move.CardID != "" {
			if events, err := state.App.PlayCard(state.Game, currentTurn, move.CardID); err == nil {
				mh.broadcastEvents(ctx, state, dispatcher, logger, events)
			} else {
				logger.Error("processBots: Bot %s play rejected: %v", currentUserID, err)
			}
		}
	}
}

func (mh *matchHandler) broadcastLobbyState(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, opCode int64) {
	ev := LobbyStateEvent{OwnerSeat: state.OwnerSeat}
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}

		displayName := userId
		if p, exists := state.Presences[userId]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userId); name != "" {
			displayName = name
		}

		ev.Seats = append(ev.Seats, LobbySeat{
			Seat:        i,
			UserID:      userId,
			DisplayName: displayName,
			IsBot:       isBotUserId(userId),
			IsOwner:     i == state.OwnerSeat,
		})
	}

	bytes, err := json.Marshal(ev)
	if err != nil {
		logger.Error("broadcastLobbyState: marshal failed: %v", err)
		return
	}
	dispatcher.BroadcastMessage(opCode, bytes, nil, nil, true)
}

// sendSnapshots delivers a per-viewer redacted game snapshot to every
// connected human.
func (mh *matchHandler) sendSnapshots(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Game == nil {
		return
	}
	for userID, presence := range state.Presences {
		snap := state.Game.SnapshotFor(state.gameSeatOf(userID))
		bytes, err := json.Marshal(snap)
		if err != nil {
			logger.Error("sendSnapshots: marshal failed: %v", err)
			return
		}
		dispatcher.BroadcastMessage(OpStateSnapshot, bytes, []runtime.Presence{presence}, nil, true)
	}
}

func (mh *matchHandler) seatOfSender(state *MatchState, userID string) int {
	for i, seatUserId := range state.Seats {
		if seatUserId == userID {
			return i
		}
	}
	return -1
}

func (mh *matchHandler) handleStartGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := mh.seatOfSender(state, senderID)

	logger.Info("StartGame: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Game != nil && state.Game.Phase != domain.PhaseEnded {
		logger.Warn("StartGame: Game already in progress.")
		mh.sendError(state, dispatcher, logger, senderID, 409, "game already in progress")
		return
	}
	if senderSeat != state.OwnerSeat {
		logger.Warn("StartGame: User %s tried to start game but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the owner can start the game")
		return
	}

	request := StartGameRequest{Mode: config.GetDefaultMode()}
	if len(msg.GetData()) > 0 {
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("StartGame: Invalid StartGameRequest from %s: %v", senderID, err)
			mh.sendError(state, dispatcher, logger, senderID, 400, "invalid start request")
			return
		}
	}

	mh.trimSurplusBots(state, domain.Mode(request.Mode), logger)

	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartGame {
		logger.Warn("StartGame: Cannot start with %d players. Need at least %d.", activeCount, app.MinPlayersToStartGame)
		mh.sendError(state, dispatcher, logger, senderID, 400, "not enough players")
		return
	}

	// Compact occupied lobby seats into game seats, preserving seat order.
	playerSeats := make([]string, 0, activeCount)
	for _, userId := range state.Seats {
		if userId != "" {
			playerSeats = append(playerSeats, userId)
		}
	}

	starter := state.Starter % len(playerSeats)
	game, events, err := state.App.StartGame(domain.Mode(request.Mode), playerSeats, starter, request.Teams)
	if err != nil {
		logger.Error("StartGame: Failed to start game: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	state.Game = game
	state.PlayerSeats = playerSeats
	state.PendingResolve = nil
	state.PendingReveal = nil
	state.BotWaitUntil = 0

	if game.Phase == domain.PhaseRevealing {
		state.PendingReveal = &pendingTimer{
			FireAtTick: state.Tick + int64(config.GetRevealDelaySeconds()*tickRate),
			GameID:     game.ID,
			Round:      game.Round,
			Phase:      domain.PhaseRevealing,
		}
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.broadcastEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartGame: Game %s started, mode %s, %d players.", game.ID, game.Mode, activeCount)
}

// trimSurplusBots releases seated bots, highest seat first, until the lobby
// fits a fixed-size mode. Auto-fill packs every seat, which would otherwise
// make a duel unstartable. Humans are never unseated; if humans alone exceed
// the mode's count the deal is rejected downstream.
func (mh *matchHandler) trimSurplusBots(state *MatchState, mode domain.Mode, logger runtime.Logger) {
	var target int
	switch mode {
	case domain.ModeDuel:
		target = 2
	case domain.ModeTeams:
		target = 4
	default:
		// Free-for-all takes any occupancy it is dealt.
		return
	}
	for i := len(state.Seats) - 1; i >= 0 && state.GetOccupiedSeatCount() > target; i-- {
		if isBotUserId(state.Seats[i]) {
			logger.Info("StartGame: Releasing bot %s from seat %d to fit mode %s.", state.Seats[i], i, mode)
			delete(state.Bots, state.Seats[i])
			state.Seats[i] = ""
		}
	}
}

func (mh *matchHandler) handlePlayCard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if state.Game == nil {
		logger.Warn("handlePlayCard: Game not started.")
		mh.sendError(state, dispatcher, logger, senderID, 400, "no game in progress")
		return
	}

	var request PlayCardRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handlePlayCard: Failed to unmarshal PlayCardRequest: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid play request")
		return
	}

	senderSeat := state.gameSeatOf(senderID)
	events, err := state.App.PlayCard(state.Game, senderSeat, request.CardID)
	if err != nil {
		logger.Warn("handlePlayCard: User %s (seat %d) failed to play %s: %v", senderID, senderSeat, request.CardID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleSwapTrump(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()

	if state.Game == nil {
		logger.Warn("handleSwapTrump: Game not started.")
		mh.sendError(state, dispatcher, logger, senderID, 400, "no game in progress")
		return
	}

	var request SwapTrumpRequest
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleSwapTrump: Failed to unmarshal SwapTrumpRequest: %v", err)
		mh.sendError(state, dispatcher, logger, senderID, 400, "invalid swap request")
		return
	}

	senderSeat := state.gameSeatOf(senderID)
	events, err := state.App.SwapTrump(state.Game, senderSeat, request.CardID)
	if err != nil {
		logger.Warn("handleSwapTrump: User %s (seat %d) failed to swap %s: %v", senderID, senderSeat, request.CardID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.broadcastEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleRequestNewGame(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := mh.seatOfSender(state, senderID)

	if state.Game != nil && state.Game.Phase != domain.PhaseEnded {
		mh.sendError(state, dispatcher, logger, senderID, 409, "game still in progress")
		return
	}
	if senderSeat != state.OwnerSeat {
		mh.sendError(state, dispatcher, logger, senderID, 403, "only the owner can restart")
		return
	}

	// The lead rotates clockwise between deals.
	if state.Game != nil {
		state.Starter = (state.Game.Starter + 1) % len(state.PlayerSeats)
	}
	state.Game = nil
	state.PendingResolve = nil
	state.PendingReveal = nil

	mh.handleStartGame(ctx, state, dispatcher, logger, msg)
}

// broadcastEvents dispatches app events and arms any dwell timer they imply.
func (mh *matchHandler) broadcastEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
	mh.sendSnapshots(state, dispatcher, logger)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64

	switch ev.Kind {
	case app.EventGameStarted:
		opCode = OpGameStarted
	case app.EventHandDealt:
		opCode = OpHandDealt
	case app.EventPlayBegan:
		opCode = OpPlayBegan
	case app.EventCardPlayed:
		opCode = OpCardPlayed
		p := ev.Payload.(app.CardPlayedPayload)
		if p.RoundComplete && state.Game != nil {
			state.PendingResolve = &pendingTimer{
				FireAtTick: state.Tick + int64(config.GetRoundResolveDelaySeconds()*tickRate),
				GameID:     state.Game.ID,
				Round:      state.Game.Round,
				Phase:      domain.PhaseRoundComplete,
			}
		}
	case app.EventTrumpSwapped:
		opCode = OpTrumpSwapped
	case app.EventRoundEnded:
		opCode = OpRoundResolved
	case app.EventGameEnded:
		opCode = OpGameEnded
		// The finished game stays in memory for the result screen; a
		// RequestNewGame clears it.
		mh.updateLabel(state, dispatcher, logger)
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast).
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If we had intended recipients but none are connected (e.g. they are
		// bots), we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)
}

// sendError sends a GameErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	bytes, err := json.Marshal(&GameErrorEvent{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal GameErrorEvent: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	mode := config.GetDefaultMode()
	if state.Game != nil {
		phase = string(state.Game.Phase)
		mode = string(state.Game.Mode)
	}

	labelBytes, err := json.Marshal(&MatchLabel{
		Open:  state.GetOpenSeatsCount(),
		Game:  "briscola",
		Mode:  mode,
		Phase: phase,
	})
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
