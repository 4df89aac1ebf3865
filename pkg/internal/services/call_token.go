package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaurycid/messenger/pkg/internal/database"
	"github.com/amaurycid/messenger/pkg/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type CallClaims struct {
	CallID       uint                `json:"call_id"`
	ProviderID   uint                `json:"provider_id"`
	ProviderType models.ProviderType `json:"provider_type"`
	RoomID       int64               `json:"room_id"`
	RoomPin      string              `json:"room_pin"`
	jwt.RegisteredClaims
}

// EncodeCallToken mints a signed room join token. Only a currently joined,
// non-kicked participant of a setup-complete call may hold one; the token is
// how room credentials reach the client without re-reading the projection.
func EncodeCallToken(call models.Call, provider models.Provider) (string, error) {
	room := call.Room()
	if !call.Active() {
		return "", ErrCallEnded
	}
	if room == nil {
		return "", fmt.Errorf("call room is not set up yet")
	}

	var participant models.CallParticipant
	err := database.C.
		Where(models.CallParticipant{
			CallID:       call.ID,
			ProviderID:   provider.ProviderID(),
			ProviderType: provider.ProviderKind(),
		}).
		Where("left_at IS NULL").
		First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotInCall
	} else if err != nil {
		return "", err
	}
	if participant.Kicked {
		return "", ErrParticipantKicked
	}

	duration := time.Second * time.Duration(viper.GetInt("calling.token_duration"))
	claims := CallClaims{
		CallID:       call.ID,
		ProviderID:   provider.ProviderID(),
		ProviderType: provider.ProviderKind(),
		RoomID:       room.RoomID,
		RoomPin:      room.RoomPin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "messenger",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tks, err := token.SignedString([]byte(viper.GetString("security.call_token_secret")))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %v", err)
	}
	return tks, nil
}

func ParseCallToken(tk string) (CallClaims, error) {
	var claims CallClaims
	token, err := jwt.ParseWithClaims(tk, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return []byte(viper.GetString("security.call_token_secret")), nil
	})
	if err != nil {
		return claims, err
	}
	if !token.Valid {
		return claims, fmt.Errorf("invalid token")
	}
	return claims, nil
}
