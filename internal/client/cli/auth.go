package cli

import (
	"context"
	"errors"

	"github.com/avolkovs/pennywise/internal/client/client"
)

func (a *App) Register(ctx context.Context) error {
	username, err := a.readString("Username: ")
	if err != nil {
		return err
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := a.authService.Register(ctx, username, password); err != nil {
		printlnFn("Registration failed:", err)
		return err
	}

	a.userName = username
	a.startOrchestration(ctx)
	printlnFn("Registered and logged in as", username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	username, err := a.readString("Username: ")
	if err != nil {
		return err
	}
	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}

	if err := a.authService.Login(ctx, username, password); err != nil {
		switch {
		case errors.Is(err, client.ErrUnavailable):
			printlnFn("Server unreachable; working offline. Local data stays available after a previous login on this device.")
		case errors.Is(err, client.ErrUnauthorized):
			printlnFn("Invalid username or password.")
		default:
			printlnFn("Login failed:", err)
		}
		if !errors.Is(err, client.ErrUnavailable) {
			return err
		}
	}

	a.userName = username
	a.startOrchestration(ctx)
	printlnFn("Logged in as", username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.userName = ""
	printlnFn("Logged out.")
	return nil
}
