package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/borgmon/clockbar/pkg/alarm"
	"github.com/borgmon/clockbar/pkg/calendar"
	"github.com/borgmon/clockbar/pkg/models"
	"github.com/borgmon/clockbar/pkg/timezone"
)

var errUsage = errors.New("usage")

func (d *daemon) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "run":
		return d.run(ctx)
	case "list":
		return d.list(os.Stdout, time.Now())
	case "set":
		return d.set(ctx, args)
	case "edit":
		return d.edit(ctx, args)
	case "toggle":
		id, err := d.alarmArg(args)
		if err != nil {
			return err
		}
		return d.alarms.ToggleAlarm(ctx, id)
	case "delete":
		id, err := d.alarmArg(args)
		if err != nil {
			return err
		}
		return d.alarms.DeleteAlarm(ctx, id)
	case "menu":
		return d.alarms.ShowAlarmMenu(ctx)
	case "export":
		return d.export(args)
	case "import":
		return d.importCalendar(ctx, args)
	case "zone":
		return d.setZone(args)
	case "zones":
		return listZones(os.Stdout, time.Now())
	case "swap":
		d.zones.Swap()
		return d.list(os.Stdout, time.Now())
	default:
		return errUsage
	}
}

// set adds an alarm at the given time, or asks for one
func (d *daemon) set(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return d.alarms.SetAlarm(ctx)
	}
	hour, minute, err := models.ParseTime(args[0])
	if err != nil {
		return err
	}
	a, err := d.alarms.AddAlarm(hour, minute)
	if err != nil {
		return err
	}
	d.prompter.Info(d.tr.T("alarm.message.set", map[string]string{"time": a.Time()}))
	return nil
}

func (d *daemon) edit(ctx context.Context, args []string) error {
	id, err := d.alarmArg(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return d.alarms.EditAlarm(ctx, id)
	}

	hour, minute, err := models.ParseTime(args[1])
	if err != nil {
		return err
	}
	a, err := d.alarms.UpdateAlarm(id, hour, minute)
	if err != nil {
		return err
	}
	d.prompter.Info(d.tr.T("alarm.message.updated", map[string]string{"time": a.Time()}))
	return nil
}

// alarmArg resolves the first argument, a 1-based position or an id, to an
// alarm id. No argument means the manager will ask.
func (d *daemon) alarmArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	alarms := d.alarms.Alarms()
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n < 1 || n > len(alarms) {
			return "", alarm.Errorf(alarm.ErrNotFound, "no alarm number %d", n)
		}
		return alarms[n-1].ID, nil
	}
	if _, ok := alarm.FindByID(alarms, args[0]); !ok {
		return "", alarm.Errorf(alarm.ErrNotFound, "no alarm with id %q", args[0])
	}
	return args[0], nil
}

func (d *daemon) list(w io.Writer, now time.Time) error {
	z1, z2 := d.zones.Zones()
	for _, z := range []timezone.Zone{z1, z2} {
		_, loc, _ := timezone.Resolve(z.ID)
		fmt.Fprintf(w, "%s %-6s %s\n", now.In(loc).Format("15:04"), timezone.ShortLabel(now, loc), z.Label)
	}
	fmt.Fprintln(w)

	alarms := d.alarms.Alarms()
	if len(alarms) == 0 {
		fmt.Fprintln(w, d.tr.T("alarm.message.none", nil))
		return nil
	}
	for i, a := range alarms {
		fmt.Fprintf(w, "%d. %-32s %s\n", i+1, alarm.Describe(a, d.tr), a.ID)
	}

	upcoming, err := calendar.Upcoming(alarms, now, 24*time.Hour, d.alarms.Location())
	if err != nil {
		return err
	}
	if len(upcoming) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, d.tr.T("app.nextAlarm", map[string]string{
			"time": upcoming[0].At.In(now.Location()).Format("15:04"),
			"in":   upcoming[0].At.Sub(now).Round(time.Minute).String(),
		}))
	}
	return nil
}

func (d *daemon) export(args []string) error {
	w := io.Writer(os.Stdout)
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return calendar.Export(w, d.alarms.Alarms(), calendar.ExportOptions{Location: d.alarms.Location()})
}

func (d *daemon) importCalendar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	incoming, err := calendar.Load(ctx, args[0], d.alarms.Location())
	if err != nil {
		return err
	}
	if len(incoming) == 0 {
		d.prompter.Info(d.tr.T("app.importNothing", nil))
		return nil
	}
	added, err := d.alarms.ImportAlarms(incoming)
	if err != nil {
		return err
	}
	d.prompter.Info(d.tr.T("app.imported", map[string]string{"count": strconv.Itoa(added)}))
	return nil
}

func (d *daemon) setZone(args []string) error {
	if len(args) < 2 || (args[0] != "1" && args[0] != "2") {
		return errUsage
	}
	slot, _ := strconv.Atoi(args[0])
	if err := d.zones.Set(slot, args[1]); err != nil {
		return err
	}
	return d.list(os.Stdout, time.Now())
}

func listZones(w io.Writer, now time.Time) error {
	order, groups := timezone.ByRegion()
	for _, region := range order {
		fmt.Fprintln(w, region)
		for _, z := range groups[region] {
			_, loc, _ := timezone.Resolve(z.ID)
			fmt.Fprintf(w, "  %-32s %s\n", z.ID, strings.TrimSpace(timezone.Describe(now, z, loc)))
		}
	}
	return nil
}
