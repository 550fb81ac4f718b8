package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Promotion tags produced by DefaultCalendar.
const (
	TagSpringFestival = "Spring Festival"
	TagMidYear        = "Mid-Year Festival"
	TagDoubleEleven   = "Double-Eleven Festival"
	TagOrdinaryDay    = "ordinary day"
)

// Discount bucket labels produced by DefaultCalendar.
const (
	BucketOver30  = ">30% off"
	Bucket20To30  = "20–30% off"
	Bucket10To20  = "10–20% off"
	BucketUnder10 = "<10%/none"
)

// PromotionWindow tags every order whose date falls in Month between FromDay
// and ToDay inclusive. Year zero matches every year.
type PromotionWindow struct {
	Name    string `yaml:"name" validate:"required"`
	Year    int    `yaml:"year" validate:"min=0"`
	Month   int    `yaml:"month" validate:"min=1,max=12"`
	FromDay int    `yaml:"from_day" validate:"min=1,max=31"`
	ToDay   int    `yaml:"to_day" validate:"min=1,max=31,gtefield=FromDay"`
}

// Matches reports whether the date falls inside the window.
func (w PromotionWindow) Matches(t time.Time) bool {
	if w.Year != 0 && t.Year() != w.Year {
		return false
	}
	if int(t.Month()) != w.Month {
		return false
	}
	return t.Day() >= w.FromDay && t.Day() <= w.ToDay
}

// DiscountBucket covers discount rates in (previous Upper, Upper].
type DiscountBucket struct {
	Label string  `yaml:"label" validate:"required"`
	Upper float64 `yaml:"upper" validate:"gt=0,lte=1"`
}

// Calendar is the promotional calendar: ordered windows (later entries win
// on overlap), the tag for dates outside every window, and the discount
// bucket edges in ascending order.
type Calendar struct {
	Windows         []PromotionWindow `yaml:"windows" validate:"dive"`
	DefaultTag      string            `yaml:"default_tag" validate:"required"`
	DiscountBuckets []DiscountBucket  `yaml:"discount_buckets" validate:"min=1,dive"`
}

// DefaultCalendar returns the built-in calendar.
func DefaultCalendar() *Calendar {
	return &Calendar{
		Windows: []PromotionWindow{
			{Name: TagSpringFestival, Year: 2022, Month: 2, FromDay: 1, ToDay: 7},
			{Name: TagSpringFestival, Year: 2023, Month: 1, FromDay: 20, ToDay: 27},
			{Name: TagMidYear, Month: 6, FromDay: 10, ToDay: 20},
			{Name: TagDoubleEleven, Month: 11, FromDay: 9, ToDay: 12},
		},
		DefaultTag: TagOrdinaryDay,
		DiscountBuckets: []DiscountBucket{
			{Label: BucketOver30, Upper: 0.7},
			{Label: Bucket20To30, Upper: 0.8},
			{Label: Bucket10To20, Upper: 0.9},
			{Label: BucketUnder10, Upper: 1.0},
		},
	}
}

// Tags returns every tag the calendar can produce: window names in first
// appearance order followed by the default tag.
func (c *Calendar) Tags() []string {
	seen := make(map[string]bool)
	var tags []string
	for _, w := range c.Windows {
		if !seen[w.Name] {
			seen[w.Name] = true
			tags = append(tags, w.Name)
		}
	}
	if !seen[c.DefaultTag] {
		tags = append(tags, c.DefaultTag)
	}
	return tags
}

// Validate checks field constraints and that bucket edges ascend strictly
// and end at 1.0.
func (c *Calendar) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid calendar: %w", err)
	}
	prev := 0.0
	for i, b := range c.DiscountBuckets {
		if b.Upper <= prev {
			return fmt.Errorf("invalid calendar: discount bucket %d upper edge %.2f does not exceed %.2f", i, b.Upper, prev)
		}
		prev = b.Upper
	}
	if prev != 1.0 {
		return fmt.Errorf("invalid calendar: last discount bucket must end at 1.0, got %.2f", prev)
	}
	return nil
}

// LoadCalendar reads a calendar from YAML. An empty path returns
// DefaultCalendar. Sections omitted from the file keep their defaults.
func LoadCalendar(path string) (*Calendar, error) {
	if path == "" {
		return DefaultCalendar(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}

	var file Calendar
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse calendar %s: %w", path, err)
	}

	cal := DefaultCalendar()
	if file.Windows != nil {
		cal.Windows = file.Windows
	}
	if file.DefaultTag != "" {
		cal.DefaultTag = file.DefaultTag
	}
	if file.DiscountBuckets != nil {
		cal.DiscountBuckets = file.DiscountBuckets
	}

	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}
