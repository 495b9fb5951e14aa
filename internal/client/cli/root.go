package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	st := a.orch.Status()
	switch {
	case st.StorageBlocked:
		s += "storage blocked"
	case st.Online:
		s += "online"
	default:
		s += "offline"
	}
	if st.PendingCount > 0 {
		s += fmt.Sprintf(", %d pending", st.PendingCount)
	}
	return s
}

func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to Pennywise CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
