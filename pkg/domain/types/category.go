package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type CategoryID string

const EmptyCategoryID CategoryID = ""

func NewCategoryID() CategoryID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return CategoryID(id.String())
}

func (x CategoryID) String() string {
	return string(x)
}

func (x CategoryID) Validate() error {
	if x == EmptyCategoryID {
		return goerr.New("empty category ID")
	}
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(err, "invalid category ID format", goerr.V("id", x))
	}
	return nil
}

// UserID identifies the owner of categories. It is the GitHub login of the user.
type UserID string

const EmptyUserID UserID = ""

func (x UserID) String() string {
	return string(x)
}

func (x UserID) Validate() error {
	if x == EmptyUserID {
		return goerr.New("empty user ID")
	}
	if len(x) > 100 {
		return goerr.New("user ID too long", goerr.V("id", x))
	}
	return nil
}
