package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"reflect"
	"strings"

	"gauge-automation/lib/errors"
	"gauge-automation/lib/utils"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Config is a JSON file backed configuration of type T. On first Init the
// defaults are written to disk. Fields tagged `env:"NAME"` are then
// overridden from the environment and the result is validated through
// `validate` tags.
type Config[T any] struct {
	defaultValue T
	dataDir      string

	loaded bool
	value  T
}

const DATA_DIR = "data"

var validate = validator.New(validator.WithRequiredStructEnabled())

func New[T any](defaultValue T, dataDir *string) *Config[T] {
	dir := DATA_DIR
	if dataDir != nil && *dataDir != "" {
		dir = *dataDir
	}
	return &Config[T]{defaultValue: defaultValue, dataDir: dir}
}

func (c *Config[T]) DataDir() string {
	return c.dataDir
}

func (c *Config[T]) filePath() string {
	name := reflect.TypeOf((*T)(nil)).Elem().Name()
	return path.Join(c.dataDir, "config", name+".json")
}

// Init loads the file, or writes the defaults when there is none, then
// applies the environment and overrides before validating. Overrides are not
// persisted.
func (c *Config[T]) Init(overrides ...func(*T)) error {
	f, err := os.Open(c.filePath())
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		err = c.Update(func(t *T) {
			*t = c.defaultValue
		})
		if err != nil {
			return err
		}
	} else {
		defer f.Close()
		b, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		// decode over a copy so slices of the defaults are not reused
		value, err := c.cloneDefault()
		if err != nil {
			return err
		}
		err = json.Unmarshal(b, &value)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", c.filePath(), err)
		}
		c.value = value
	}

	if err := applyEnv(&c.value); err != nil {
		return err
	}
	for _, override := range overrides {
		override(&c.value)
	}
	if err := Validate(c.value); err != nil {
		return err
	}

	c.loaded = true
	return nil
}

func (c *Config[T]) cloneDefault() (T, error) {
	var out T
	b, err := json.Marshal(c.defaultValue)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(b, &out)
	return out, err
}

func (c *Config[T]) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

func (c *Config[T]) Stop() error {
	return nil
}

func (c *Config[T]) Get() T {
	if !c.loaded {
		return c.defaultValue
	}
	return c.value
}

// Override changes the in-memory value without touching the file, used for
// command line flags.
func (c *Config[T]) Override(updater func(*T)) error {
	temp := c.Get()
	updater(&temp)
	if err := Validate(temp); err != nil {
		return err
	}
	c.value = temp
	c.loaded = true
	return nil
}

func (c *Config[T]) Update(updater func(*T)) error {
	temp := c.value
	updater(&temp)
	b, err := json.MarshalIndent(temp, "", "  ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(path.Dir(c.filePath()), 0755)
	if err != nil {
		return err
	}
	err = os.WriteFile(c.filePath(), b, 0644)
	if err != nil {
		return err
	}
	c.value = temp
	return nil
}

// Validate runs the struct validations of v and reports failures as a
// ConfigurationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ConfigurationError.Clone().SetData("error", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
	}
	return errors.ConfigurationError.Clone().SetData("fields", strings.Join(fields, ","))
}

// applyEnv decodes environment variables named by `env` tags into v.
func applyEnv(v any) error {
	rv := reflect.ValueOf(v).Elem()
	if rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()

	input := map[string]any{}
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := field.Tag.Get("env")
		if name == "" || name == "-" {
			continue
		}
		if val, ok := os.LookupEnv(name); ok && val != "" {
			input[field.Name] = val
		}
	}
	if len(input) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           v,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(input); err != nil {
		return errors.ConfigurationError.Clone().SetData("error", err)
	}
	return nil
}
