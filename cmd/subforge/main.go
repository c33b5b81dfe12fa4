package main

import (
	// Register plugins via side-effects
	_ "subforge/internal/collectors/file"
	_ "subforge/internal/collectors/http"
	_ "subforge/internal/collectors/telegram"
	_ "subforge/internal/publishers/file"
	_ "subforge/internal/publishers/github"
	_ "subforge/internal/publishers/stdout"
)

func main() {
	Execute()
}
