package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/user"
)

// addAdmin creates a pre-approved admin account.
func (cli *commandLine) addAdmin(email, name, pwd string) error {
	usr := user.User{
		ID:         uuid.New().String(),
		Name:       core.CleanString(name),
		Email:      core.CleanString(email, true /* lower */),
		Role:       user.RoleAdmin,
		IsApproved: true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.CreateUser(usr); err != nil {
		return err
	}
	fmt.Printf("admin %s created\n", usr.Email)
	return nil
}
