package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/starfinder/pkg/domain/types"
)

func TestCategoryID(t *testing.T) {
	id := types.NewCategoryID()
	gt.NoError(t, id.Validate())
	gt.NotEqual(t, id, types.NewCategoryID())

	gt.Error(t, types.EmptyCategoryID.Validate())
	gt.Error(t, types.CategoryID("not-a-uuid").Validate())
}

func TestUserID(t *testing.T) {
	gt.NoError(t, types.UserID("octocat").Validate())
	gt.Error(t, types.EmptyUserID.Validate())
}
