/*
Package lua implements ports.Environment on top of game rules written in Lua
(github.com/yuin/gopher-lua).

A game script evaluates to a table:

	local G = { id = "nim-v0", description = "...", players = 2 }
	function G.reset(n) ... end
	function G.step(player, action) ... end
	return G

Scripts drive the shared event log through the "game" module and reject moves
with game.invalid, which emits the invalid move marker the game master scans for.
Randomness comes from game.random, seeded by Reset, so episodes replay exactly.
*/
package lua
