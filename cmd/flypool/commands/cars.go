package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/flypool/flyweight"
	"github.com/jonwraymond/flypool/observe"
)

// CarModel is the intrinsic state shared by every car of the same make,
// model and color.
type CarModel struct {
	Brand string `yaml:"brand" json:"brand"`
	Model string `yaml:"model" json:"model"`
	Color string `yaml:"color" json:"color"`
}

// Parts implements flyweight.Intrinsic.
func (c CarModel) Parts() []string {
	return []string{c.Brand, c.Model, c.Color}
}

// Registration is the extrinsic state of one registered car.
type Registration struct {
	Plates string `json:"plates"`
	Owner  string `json:"owner"`
}

// Validate implements flyweight.Validator.
func (r Registration) Validate() error {
	if r.Plates == "" {
		return errors.New("plates are required")
	}
	if r.Owner == "" {
		return errors.New("owner is required")
	}
	return nil
}

// CarRecord is one line of the police database.
type CarRecord struct {
	Plates string `yaml:"plates"`
	Owner  string `yaml:"owner"`
	Brand  string `yaml:"brand"`
	Model  string `yaml:"model"`
	Color  string `yaml:"color"`
}

func (r CarRecord) model() CarModel {
	return CarModel{Brand: r.Brand, Model: r.Model, Color: r.Color}
}

func (r CarRecord) registration() Registration {
	return Registration{Plates: r.Plates, Owner: r.Owner}
}

// Fleet is the YAML document accepted by the load command.
type Fleet struct {
	Models []CarModel  `yaml:"models"`
	Cars   []CarRecord `yaml:"cars"`
}

// LoadFleet decodes a Fleet document. Unknown fields are rejected.
func LoadFleet(r io.Reader) (Fleet, error) {
	var fleet Fleet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fleet); err != nil {
		if errors.Is(err, io.EOF) {
			return Fleet{}, nil
		}
		return Fleet{}, fmt.Errorf("decode fleet: %w", err)
	}
	return fleet, nil
}

// CarPool is the flyweight factory for car models.
type CarPool = flyweight.Factory[CarModel, Registration]

// CarView is the combined state rendered for one registered car.
type CarView = flyweight.View[CarModel, Registration]

// DefaultModels are the car models the demo pool starts with.
var DefaultModels = []CarModel{
	{Brand: "Chevrolet", Model: "Camaro2018", Color: "pink"},
	{Brand: "Mercedes Benz", Model: "C300", Color: "black"},
	{Brand: "Mercedes Benz", Model: "C500", Color: "red"},
	{Brand: "BMW", Model: "M5", Color: "red"},
	{Brand: "BMW", Model: "X6", Color: "white"},
}

// NewCarPool creates an empty car pool with its own store.
func NewCarPool(cfg flyweight.FactoryConfig) (*CarPool, error) {
	return flyweight.NewFactory(flyweight.NewStore[*flyweight.Flyweight[CarModel, Registration]](), cfg)
}

// registerCar resolves the shared model for rec and combines it with the
// car's registration. reused reports whether the model was already pooled.
func registerCar(ctx context.Context, pool *CarPool, rec CarRecord) (view CarView, reused bool, err error) {
	fw, outcome, err := pool.Resolve(ctx, rec.model())
	if err != nil {
		return CarView{}, false, err
	}
	reused = outcome == observe.OutcomeHit

	view, err = fw.Operate(rec.registration())
	if err != nil {
		return CarView{}, reused, err
	}
	return view, reused, nil
}
