// Package cognito provisions user accounts in an AWS Cognito user pool for
// approved registrations.
package cognito

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"rasd-api/internal/domain/registrations"
)

// Provisioner creates users with AdminCreateUser and adds them to their
// group. Cognito's own invitation email is suppressed; the temporary password
// is delivered through the service's notification templates instead.
type Provisioner struct {
	client     *cip.Client
	userPoolID string
}

func New(cfg aws.Config, userPoolID string) *Provisioner {
	return &Provisioner{
		client:     cip.NewFromConfig(cfg),
		userPoolID: userPoolID,
	}
}

func (p *Provisioner) Register(ctx context.Context, in registrations.ProvisionInput) (string, error) {
	password, err := generatePassword()
	if err != nil {
		return "", fmt.Errorf("cognito: generating password: %w", err)
	}

	_, err = p.client.AdminCreateUser(ctx, &cip.AdminCreateUserInput{
		UserPoolId:        aws.String(p.userPoolID),
		Username:          aws.String(in.Username),
		TemporaryPassword: aws.String(password),
		MessageAction:     types.MessageActionTypeSuppress,
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(in.Username)},
			{Name: aws.String("email_verified"), Value: aws.String("true")},
			{Name: aws.String("given_name"), Value: aws.String(in.GivenName)},
			{Name: aws.String("family_name"), Value: aws.String(in.FamilyName)},
			{Name: aws.String("custom:organisation_id"), Value: aws.String(in.OrganisationID.String())},
		},
	})
	if err != nil {
		return "", fmt.Errorf("cognito: creating user: %w", err)
	}

	_, err = p.client.AdminAddUserToGroup(ctx, &cip.AdminAddUserToGroupInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(in.Username),
		GroupName:  aws.String(string(in.Group)),
	})
	if err != nil {
		return "", fmt.Errorf("cognito: adding user to group: %w", err)
	}

	return password, nil
}

// generatePassword builds a random temporary password that satisfies the
// pool's policy: length 16 with lower, upper, digit and symbol characters.
func generatePassword() (string, error) {
	const (
		lower   = "abcdefghijkmnpqrstuvwxyz"
		upper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
		digits  = "23456789"
		symbols = "!@#$%^&*"
		length  = 16
	)
	all := lower + upper + digits + symbols

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	out := make([]byte, 0, length)
	for _, set := range []string{lower, upper, digits, symbols} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Shuffle so the required character classes are not always leading.
	for i := len(out) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

// StaticProvisioner satisfies registrations.Provisioner without an identity
// provider. Development only.
type StaticProvisioner struct{}

func (StaticProvisioner) Register(context.Context, registrations.ProvisionInput) (string, error) {
	return "Temporary#Pass1", nil
}
