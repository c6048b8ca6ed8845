package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/kaithabhanuteja/StudentManagement/core"
)

func (cli *commandLine) grant(uname string, perms ...string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}

	cleaned := make([]string, 0, len(perms))
	for _, p := range perms {
		if p = core.CleanString(p, true /* lower */); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if usr, err = cli.usrSvc.Grant(ctx, usr, cleaned...); err != nil {
		return err
	}
	fmt.Printf("%s now holds: %s\n", usr.Username, strings.Join(usr.Permissions, ", "))
	return nil
}
