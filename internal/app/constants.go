package app

// MinPlayersToStartGame is the fewest occupied seats a match needs before the
// owner may deal. Centralized so local runs can relax it in one place.
const MinPlayersToStartGame = 2

// MaxPlayers is the seat cap across all modes.
const MaxPlayers = 4
