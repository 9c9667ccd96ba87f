package cli

import (
	"context"
	"fmt"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}

	tr, err := ctx.OpenTracker(context.Background())
	if err != nil {
		return err
	}
	ctx.warnOnSaveError(tr)

	fmt.Fprintf(ctx.Out, "Initialized pillbox storage at: %s\n", ctx.Store.GetConfigPath())
	fmt.Fprintf(ctx.Out, "Tracking %d supplements, reminder %s\n", len(tr.Items()), describeReminder(tr.Settings()))
	return nil
}
