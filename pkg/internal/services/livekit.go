package services

import (
	"context"
	"fmt"

	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/google/uuid"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go"
	"github.com/spf13/viper"
)

// RoomDriver is the conferencing backend boundary. It produces the room
// descriptor a call carries after setup and tears state down when the call
// ends; the lifecycle manager stays correct with no driver configured.
type RoomDriver interface {
	CreateRoom(ctx context.Context, call models.Call) (models.CallRoom, error)
	DeleteRoom(ctx context.Context, call models.Call) error
	RemoveParticipant(ctx context.Context, call models.Call, providerId uint, providerType models.ProviderType) error
}

var Rd RoomDriver

func SetupLiveKit() {
	host := "https://" + viper.GetString("calling.endpoint")

	Rd = &liveKitDriver{
		client: lksdk.NewRoomServiceClient(
			host,
			viper.GetString("calling.api_key"),
			viper.GetString("calling.api_secret"),
		),
	}
}

type liveKitDriver struct {
	client *lksdk.RoomServiceClient
}

func roomName(call models.Call) string {
	return fmt.Sprintf("call-%d+%d", call.ThreadID, call.ID)
}

func participantIdentity(providerId uint, providerType models.ProviderType) string {
	return fmt.Sprintf("%s#%d", providerType, providerId)
}

func (v *liveKitDriver) CreateRoom(ctx context.Context, call models.Call) (models.CallRoom, error) {
	name := roomName(call)
	room, err := v.client.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            name,
		EmptyTimeout:    viper.GetUint32("calling.empty_timeout_duration"),
		MaxParticipants: viper.GetUint32("calling.max_participants"),
	})
	if err != nil {
		return models.CallRoom{}, fmt.Errorf("remote livekit error: %v", err)
	}

	return models.CallRoom{
		RoomID:  int64(uuid.New().ID()),
		RoomPin: uuid.NewString()[:8],
		Payload: room.Name,
	}, nil
}

func (v *liveKitDriver) DeleteRoom(ctx context.Context, call models.Call) error {
	_, err := v.client.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: roomName(call),
	})
	return err
}

func (v *liveKitDriver) RemoveParticipant(ctx context.Context, call models.Call, providerId uint, providerType models.ProviderType) error {
	_, err := v.client.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     roomName(call),
		Identity: participantIdentity(providerId, providerType),
	})
	return err
}
