// Package wine scores and blends the sensory characteristics of a batch.
package wine

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrCharacteristicRange = errors.New("characteristic must be within [0,1]")
	ErrEmptyBlend          = errors.New("blend needs a positive total volume")
	ErrInvalidRange        = errors.New("range min must not exceed max")
)

type Characteristic string

const (
	Acidity   Characteristic = "acidity"
	Aroma     Characteristic = "aroma"
	Body      Characteristic = "body"
	Spice     Characteristic = "spice"
	Sweetness Characteristic = "sweetness"
	Tannins   Characteristic = "tannins"
)

var AllCharacteristics = []Characteristic{Acidity, Aroma, Body, Spice, Sweetness, Tannins}

type Characteristics struct {
	Acidity   float64 `json:"acidity"`
	Aroma     float64 `json:"aroma"`
	Body      float64 `json:"body"`
	Spice     float64 `json:"spice"`
	Sweetness float64 `json:"sweetness"`
	Tannins   float64 `json:"tannins"`
}

func (c Characteristics) Get(ch Characteristic) float64 {
	switch ch {
	case Acidity:
		return c.Acidity
	case Aroma:
		return c.Aroma
	case Body:
		return c.Body
	case Spice:
		return c.Spice
	case Sweetness:
		return c.Sweetness
	case Tannins:
		return c.Tannins
	}
	return 0
}

func (c *Characteristics) set(ch Characteristic, v float64) {
	switch ch {
	case Acidity:
		c.Acidity = v
	case Aroma:
		c.Aroma = v
	case Body:
		c.Body = v
	case Spice:
		c.Spice = v
	case Sweetness:
		c.Sweetness = v
	case Tannins:
		c.Tannins = v
	}
}

func (c Characteristics) Validate() error {
	for _, ch := range AllCharacteristics {
		v := c.Get(ch)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s=%v: %w", ch, v, ErrCharacteristicRange)
		}
	}
	return nil
}

// Batch owns its characteristics; they are fixed at creation or blending.
type Batch struct {
	ID              string          `json:"id"`
	Grape           string          `json:"grape"`
	Volume          float64         `json:"volume"`
	Characteristics Characteristics `json:"characteristics"`
}

func NewBatch(id, grape string, volume float64, c Characteristics) (Batch, error) {
	if err := c.Validate(); err != nil {
		return Batch{}, err
	}
	if volume < 0 || math.IsNaN(volume) {
		return Batch{}, fmt.Errorf("volume %v must be >= 0", volume)
	}
	return Batch{ID: id, Grape: grape, Volume: volume, Characteristics: c}, nil
}

type BlendPart struct {
	Batch  Batch   `json:"batch"`
	Volume float64 `json:"volume"`
}

// Blend returns the volume-weighted characteristics of the parts.
func Blend(parts []BlendPart) (Characteristics, float64, error) {
	total := 0.0
	for _, p := range parts {
		if p.Volume > 0 {
			total += p.Volume
		}
	}
	if total <= 0 {
		return Characteristics{}, 0, ErrEmptyBlend
	}
	var out Characteristics
	for _, ch := range AllCharacteristics {
		sum := 0.0
		for _, p := range parts {
			if p.Volume > 0 {
				sum += p.Batch.Characteristics.Get(ch) * p.Volume
			}
		}
		out.set(ch, sum/total)
	}
	return out, total, nil
}
