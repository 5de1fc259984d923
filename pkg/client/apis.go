package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	internalclient "github.com/pipetlab/pipet/internal/client"
	"github.com/pipetlab/pipet/pkg/config"
	"github.com/pipetlab/pipet/pkg/liquid"
	"github.com/pipetlab/pipet/pkg/params"
)

// Client is the typed API for the pipet daemon.
type Client struct {
	*internalclient.Client
}

// NewClient is a constructor for creating a new Client
func NewClient(socketPath string) *Client {
	return &Client{Client: internalclient.NewClient(socketPath)}
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get daemon version")
	}
	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal daemon version")
	}
	return v, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}
	conf := &config.RawFileConfig{}
	if err := json.Unmarshal([]byte(ret), conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return conf, nil
}

func (c *Client) GetLabTemperature() (float64, error) {
	ret, err := c.Get("/lab-temperature")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to get lab temperature")
	}
	t, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal lab temperature")
	}
	return t, nil
}

func (c *Client) SetLabTemperature(t float64) (string, error) {
	return c.Put("/lab-temperature", strconv.FormatFloat(t, 'g', -1, 64))
}

func (c *Client) GetLiquids() (map[string]liquid.Definition, error) {
	ret, err := c.Get("/liquids")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list liquids")
	}
	liquids := map[string]liquid.Definition{}
	if err := json.Unmarshal([]byte(ret), &liquids); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal liquids")
	}
	return liquids, nil
}

func (c *Client) GetLiquid(name string) (*liquid.Definition, error) {
	ret, err := c.Get("/liquids/" + url.PathEscape(name))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get liquid %q", name)
	}
	def := &liquid.Definition{}
	if err := json.Unmarshal([]byte(ret), def); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal liquid %q", name)
	}
	return def, nil
}

func (c *Client) SetLiquid(def liquid.Definition) (string, error) {
	payload, err := json.Marshal(def)
	if err != nil {
		return "", err
	}
	return c.Put("/liquids/"+url.PathEscape(def.Name), string(payload))
}

func (c *Client) RemoveLiquid(name string) (string, error) {
	return c.Delete("/liquids/" + url.PathEscape(name))
}

func (c *Client) GetProperties(name string) (*liquid.Properties, error) {
	ret, err := c.Get("/liquids/" + url.PathEscape(name) + "/properties")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get properties of %q", name)
	}
	props := &liquid.Properties{}
	if err := json.Unmarshal([]byte(ret), props); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal properties of %q", name)
	}
	return props, nil
}

func (c *Client) GetHandling(name string) (*liquid.Handling, error) {
	ret, err := c.Get("/liquids/" + url.PathEscape(name) + "/handling")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get handling of %q", name)
	}
	h := &liquid.Handling{}
	if err := json.Unmarshal([]byte(ret), h); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal handling of %q", name)
	}
	return h, nil
}

func (c *Client) GetTransferPlan(name, pipette string, volume float64) (*liquid.TransferPlan, error) {
	q := url.Values{}
	q.Set("pipette", pipette)
	q.Set("volume", strconv.FormatFloat(volume, 'g', -1, 64))

	ret, err := c.Get("/liquids/" + url.PathEscape(name) + "/plan?" + q.Encode())
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get transfer plan for %q", name)
	}
	plan := &liquid.TransferPlan{}
	if err := json.Unmarshal([]byte(ret), plan); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal transfer plan for %q", name)
	}
	return plan, nil
}

// Interpolate asks the daemon for a one-shot interpolation, e.g. for a
// property the configured liquids do not cover.
func (c *Client) Interpolate(t1, v1, t2, v2, t float64) (float64, error) {
	payload, err := json.Marshal(map[string]float64{
		"t1": t1, "v1": v1, "t2": t2, "v2": v2, "t": t,
	})
	if err != nil {
		return 0, err
	}

	ret, err := c.Post("/interpolate", string(payload))
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to interpolate")
	}
	v, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to unmarshal interpolated value")
	}
	return v, nil
}

func (c *Client) GetParams(pipette, liquidName string) (*params.Entry, error) {
	ret, err := c.Get("/params/" + url.PathEscape(pipette) + "/" + url.PathEscape(liquidName))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get optimized parameters")
	}
	entry := &params.Entry{}
	if err := json.Unmarshal([]byte(ret), entry); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal optimized parameters")
	}
	return entry, nil
}

// ScheduleStatus mirrors the daemon's schedule response.
type ScheduleStatus struct {
	Cron        string      `json:"cron,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	NextRuns    []time.Time `json:"nextRuns,omitempty"`
}

func (c *Client) GetSchedule() (*ScheduleStatus, error) {
	ret, err := c.Get("/schedule")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get schedule")
	}
	s := &ScheduleStatus{}
	if err := json.Unmarshal([]byte(ret), s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}
	return s, nil
}

func (c *Client) SetSchedule(cronExpr string, temperature float64) (*ScheduleStatus, error) {
	payload, err := json.Marshal(config.Schedule{Cron: cronExpr, Temperature: temperature})
	if err != nil {
		return nil, err
	}

	ret, err := c.Put("/schedule", string(payload))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to set schedule")
	}
	s := &ScheduleStatus{}
	if err := json.Unmarshal([]byte(ret), s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}
	return s, nil
}

func (c *Client) DisableSchedule() (string, error) {
	return c.Delete("/schedule")
}

func (c *Client) PostponeSchedule(d time.Duration) (*ScheduleStatus, error) {
	ret, err := c.Post("/schedule/postpone", fmt.Sprintf("%q", d.String()))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to postpone schedule")
	}
	s := &ScheduleStatus{}
	if err := json.Unmarshal([]byte(ret), s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}
	return s, nil
}

func (c *Client) SkipSchedule() (*ScheduleStatus, error) {
	ret, err := c.Post("/schedule/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip schedule")
	}
	s := &ScheduleStatus{}
	if err := json.Unmarshal([]byte(ret), s); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal schedule")
	}
	return s, nil
}
