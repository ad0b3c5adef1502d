package paramstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	calls   int
	lastReq *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.lastReq = in
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func valueOutput(v string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: strPtr(v)}}
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: valueOutput(`{"token":"sk"}`)}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " /profile-agent/open-ai-token ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"sk"}`, v)
	require.Equal(t, "/profile-agent/open-ai-token", *api.lastReq.Name)
	require.True(t, *api.lastReq.WithDecryption)
}

func TestGetParameter_CachesSuccessfulLookups(t *testing.T) {
	api := &fakeAPI{getOut: valueOutput("gpt-4o-mini")}
	client, err := New(api)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := client.GetParameter(context.Background(), "/p/config/model")
		require.NoError(t, err)
		require.Equal(t, "gpt-4o-mini", v)
	}
	require.Equal(t, 1, api.calls)
}

func TestGetParameter_ErrorsAreNotCached(t *testing.T) {
	api := &fakeAPI{getErr: errors.New("throttled")}
	client, err := New(api)
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "throttled")

	api.getErr = nil
	api.getOut = valueOutput("ok")
	v, err := client.GetParameter(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 2, api.calls)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p")}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "missing value")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	client, err := New(&fakeAPI{})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "must not be nil")
}

func TestGetOptional(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		client, _ := New(&fakeAPI{getOut: valueOutput(" gpt-4.1-mini \n")})
		v, err := GetOptional(ctx, client, "/p/config/model", "gpt-4o-mini")
		require.NoError(t, err)
		require.Equal(t, "gpt-4.1-mini", v)
	})

	t.Run("not found falls back", func(t *testing.T) {
		notFound := &types.ParameterNotFound{Message: strPtr("nope")}
		client, _ := New(&fakeAPI{getErr: fmt.Errorf("operation error SSM: %w", notFound)})
		v, err := GetOptional(ctx, client, "/p/config/model", "gpt-4o-mini")
		require.NoError(t, err)
		require.Equal(t, "gpt-4o-mini", v)
	})

	t.Run("blank falls back", func(t *testing.T) {
		client, _ := New(&fakeAPI{getOut: valueOutput("   ")})
		v, err := GetOptional(ctx, client, "/p/config/model", "fallback")
		require.NoError(t, err)
		require.Equal(t, "fallback", v)
	})

	t.Run("other errors propagate", func(t *testing.T) {
		client, _ := New(&fakeAPI{getErr: errors.New("AccessDenied")})
		_, err := GetOptional(ctx, client, "/p/config/model", "fallback")
		require.ErrorContains(t, err, "AccessDenied")
	})
}
