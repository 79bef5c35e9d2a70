package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

func TestObjectID(t *testing.T) {
	req := require.New(t)

	id := primitive.NewObjectID()
	parsed, err := objectID(id.Hex())
	req.NoError(err)
	req.Equal(id, parsed)

	_, err = objectID("nope")
	req.ErrorIs(err, ErrNotFound)
}

func TestMongoErr(t *testing.T) {
	req := require.New(t)

	req.NoError(mongoErr(nil))
	req.ErrorIs(mongoErr(mongo.ErrNoDocuments), ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	req.ErrorIs(mongoErr(dup), ErrDuplicate)

	other := errors.New("socket closed")
	req.Equal(other, mongoErr(other))
}

func TestGormErr(t *testing.T) {
	req := require.New(t)

	req.NoError(gormErr(nil))
	req.ErrorIs(gormErr(gorm.ErrRecordNotFound), ErrNotFound)
	req.ErrorIs(gormErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrDuplicate)
}
