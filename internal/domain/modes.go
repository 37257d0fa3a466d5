package domain

import "fmt"

// Mode selects one of the closed set of Briscola rule variants. A game's mode
// is fixed at creation; every mode-dependent decision dispatches on it
// explicitly so the supported set stays exhaustively checkable.
type Mode string

const (
	// ModeDuel is classic two-player Briscola.
	ModeDuel Mode = "duel"
	// ModeFreeForAll is three or more players, everyone for themselves.
	ModeFreeForAll Mode = "free_for_all"
	// ModeTeams is four players in two fixed teams of two.
	ModeTeams Mode = "teams"
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDuel, ModeFreeForAll, ModeTeams:
		return true
	}
	return false
}

// PlayersAllowed reports whether n players can start a game of mode m.
func (m Mode) PlayersAllowed(n int) bool {
	switch m {
	case ModeDuel:
		return n == 2
	case ModeFreeForAll:
		// Need a full deal plus the trump card.
		return n >= 3 && n*HandSize < DeckSize
	case ModeTeams:
		return n == 4
	}
	return false
}

// trumpAsFinalDraw reports whether the mode keeps the odd deck remainder and
// hands the face-up trump card to the last drawer once the deck empties. The
// free-for-all mode instead truncates the deck after dealing so every round
// draws evenly; the two fairness policies are deliberate and stay per-mode.
func (m Mode) trumpAsFinalDraw() bool {
	return m != ModeFreeForAll
}

// defaultTeamAssignment seats teams alternately: 0,1,0,1.
func defaultTeamAssignment(n int) map[int]int {
	assignment := make(map[int]int, n)
	for seat := 0; seat < n; seat++ {
		assignment[seat] = seat % 2
	}
	return assignment
}

// validateTeamAssignment checks a supplied seat-to-team map: four seats,
// teams 0 and 1, two seats each.
func validateTeamAssignment(assignment map[int]int, n int) error {
	if len(assignment) != n {
		return fmt.Errorf("team assignment covers %d seats, want %d", len(assignment), n)
	}
	counts := [2]int{}
	for seat := 0; seat < n; seat++ {
		team, ok := assignment[seat]
		if !ok {
			return fmt.Errorf("seat %d has no team", seat)
		}
		if team != 0 && team != 1 {
			return fmt.Errorf("seat %d assigned to unknown team %d", seat, team)
		}
		counts[team]++
	}
	if counts[0] != counts[1] {
		return fmt.Errorf("uneven teams: %d vs %d", counts[0], counts[1])
	}
	return nil
}

// buildTeamTurnOrder arranges all four seats starting at leader so that no two
// consecutive plays come from the same team: leader, first opposing seat
// clockwise, leader's teammate, remaining opponent.
func buildTeamTurnOrder(assignment map[int]int, leader int) []int {
	leaderTeam := assignment[leader]
	teammate := -1
	opponents := make([]int, 0, 2)
	for i := 1; i < 4; i++ {
		seat := (leader + i) % 4
		if assignment[seat] == leaderTeam {
			teammate = seat
		} else {
			opponents = append(opponents, seat)
		}
	}
	return []int{leader, opponents[0], teammate, opponents[1]}
}
