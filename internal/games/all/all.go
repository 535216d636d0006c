// Package all registers every bundled game with the engine registry.
package all

import (
	_ "github.com/turnforge/turnforge/internal/games/codenames"
	_ "github.com/turnforge/turnforge/internal/games/incangold"
	_ "github.com/turnforge/turnforge/internal/games/loveletter"
	_ "github.com/turnforge/turnforge/internal/games/nim"
	_ "github.com/turnforge/turnforge/internal/games/tictactoe"
)
