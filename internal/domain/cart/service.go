package cart

import (
	"context"

	"github.com/go-faster/errors"
)

// Service implements the cart operations on top of a Repository.
type Service struct {
	repo Repository
}

// NewService creates a cart Service backed by the given Repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the owner's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, owner string) (*Cart, error) {
	c, err := s.repo.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// AddLine adds a line to the owner's cart. When an existing line matches the
// same reference its quantity is increased instead of appending a duplicate.
// Returns the updated cart.
func (s *Service) AddLine(ctx context.Context, owner string, line Line) (*Cart, error) {
	if line.Ref.IsZero() {
		return nil, ErrInvalidRef
	}
	if line.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if line.Price.IsNegative() {
		return nil, errors.New("price must not be negative")
	}

	c, err := s.repo.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	if i, ok := c.FindLine(line.Ref); ok {
		merged := c.Lines[i]
		merged.Quantity += line.Quantity
		if err := s.repo.SaveLine(ctx, owner, merged); err != nil {
			return nil, errors.Wrap(err, "save line")
		}
		c.Lines[i] = merged
		return c, nil
	}

	if err := s.repo.SaveLine(ctx, owner, line); err != nil {
		return nil, errors.Wrap(err, "save line")
	}
	c.Lines = append(c.Lines, line)
	return c, nil
}

// UpdateQuantity replaces the quantity of the line matching ref. A quantity
// of zero or less is rejected; use RemoveLine to drop a line.
func (s *Service) UpdateQuantity(ctx context.Context, owner string, ref LineRef, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.repo.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	i, ok := c.FindLine(ref)
	if !ok {
		return nil, ErrLineNotFound
	}

	updated := c.Lines[i]
	updated.Quantity = quantity
	if err := s.repo.SaveLine(ctx, owner, updated); err != nil {
		return nil, errors.Wrap(err, "save line")
	}
	c.Lines[i] = updated
	return c, nil
}

// RemoveLine deletes the line matching ref from the owner's cart.
func (s *Service) RemoveLine(ctx context.Context, owner string, ref LineRef) (*Cart, error) {
	c, err := s.repo.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}

	i, ok := c.FindLine(ref)
	if !ok {
		return nil, ErrLineNotFound
	}

	if err := s.repo.DeleteLine(ctx, owner, ref); err != nil {
		return nil, errors.Wrap(err, "delete line")
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return c, nil
}

// Clear removes every line from the owner's cart.
func (s *Service) Clear(ctx context.Context, owner string) error {
	if err := s.repo.Clear(ctx, owner); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
