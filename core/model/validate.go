package model

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate checks the node record at the boundary.
func (n Node) Validate() error {
	return describe("node", n.ID, validatorInstance().Struct(n))
}

// Validate checks the batch record at the boundary.
func (b Batch) Validate() error {
	if err := describe("batch", b.ID, validatorInstance().Struct(b)); err != nil {
		return err
	}
	if b.OriginalQuantityKg > 0 && b.QuantityKg > b.OriginalQuantityKg+quantityEpsilon {
		return fmt.Errorf("batch %s: quantity %.3f exceeds original %.3f", b.ID, b.QuantityKg, b.OriginalQuantityKg)
	}
	return nil
}

// Validate checks the request header. Line items are validated one by one
// with ValidateItem so a bad line does not reject the whole request.
func (r Request) Validate() error {
	return describe("request", r.ID, validatorInstance().Struct(r))
}

// ValidateItem checks a single line item.
func ValidateItem(it LineItem) error {
	return describe("line item", it.FoodType, validatorInstance().Struct(it))
}

func describe(kind, id string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s %q invalid: %s", kind, id, strings.Join(fields, ", "))
}
