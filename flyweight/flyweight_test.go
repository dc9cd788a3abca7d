package flyweight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlyweight_Accessors(t *testing.T) {
	f := newTestFactory(t)
	fw, err := f.GetOrCreate(context.Background(), testCar{"BMW", "M5", "red"})
	require.NoError(t, err)

	assert.Equal(t, Key("BMW_M5_red"), fw.Key())
	assert.Equal(t, testCar{"BMW", "M5", "red"}, fw.State())
	assert.Equal(t, []string{"BMW", "M5", "red"}, fw.Parts())
	assert.False(t, fw.CreatedAt().IsZero())
	assert.NotEqual(t, [16]byte{}, [16]byte(fw.ID()))
}

func TestFlyweight_PartsReturnsCopy(t *testing.T) {
	f := newTestFactory(t)
	fw, err := f.GetOrCreate(context.Background(), testCar{"BMW", "M5", "red"})
	require.NoError(t, err)

	parts := fw.Parts()
	parts[0] = "Audi"

	assert.Equal(t, []string{"BMW", "M5", "red"}, fw.Parts())
}

func TestFlyweight_OperateDoesNotMutateIntrinsic(t *testing.T) {
	f := newTestFactory(t)
	ctx := context.Background()
	fw, err := f.GetOrCreate(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)

	v1, err := fw.Operate(testOwner{Plates: "CL234IR", Owner: "James Doe"})
	require.NoError(t, err)
	v1.Parts[0] = "Audi"
	v1.Shared.Brand = "Audi"

	v2, err := fw.Operate(testOwner{Plates: "AB123CD", Owner: "Jane Roe"})
	require.NoError(t, err)

	assert.Equal(t, testCar{"BMW", "M5", "red"}, v2.Shared)
	assert.Equal(t, []string{"BMW", "M5", "red"}, v2.Parts)
	assert.Equal(t, testOwner{Plates: "AB123CD", Owner: "Jane Roe"}, v2.Unique)

	again, err := f.GetOrCreate(ctx, testCar{"BMW", "M5", "red"})
	require.NoError(t, err)
	assert.Same(t, fw, again)
	assert.Equal(t, Key("BMW_M5_red"), again.Key())
}

func TestFlyweight_OperateValidatesExtrinsic(t *testing.T) {
	f := newTestFactory(t)
	fw, err := f.GetOrCreate(context.Background(), testCar{"BMW", "M5", "red"})
	require.NoError(t, err)

	_, err = fw.Operate(testOwner{Owner: "James Doe"})
	require.ErrorIs(t, err, ErrInvalidExtrinsic)
	assert.Contains(t, err.Error(), "plates are required")
}

func TestView_String(t *testing.T) {
	f := newTestFactory(t)
	fw, err := f.GetOrCreate(context.Background(), testCar{"BMW", "M5", "red"})
	require.NoError(t, err)

	view, err := fw.Operate(testOwner{Plates: "CL234IR", Owner: "James Doe"})
	require.NoError(t, err)

	assert.Equal(t,
		`Flyweight: Displaying shared (["BMW","M5","red"]) and unique ({"plates":"CL234IR","owner":"James Doe"}) state.`,
		view.String(),
	)
}
