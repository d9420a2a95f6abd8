package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"duskwire/internal/crypto"
	"duskwire/internal/identity"
)

var (
	registrationID uint32
	signedPreKeys  int
	oneTimePreKeys int
)

// identityCmd creates an identity and prints the fingerprint of its bundle
// (spec §4.11's "identity (create an identity and print its bundle
// fingerprint)").
func identityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Create an identity and print its bundle fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity.New(cryptoEng, registrationID, signedPreKeys, oneTimePreKeys)
			if err != nil {
				return err
			}
			bundle, err := id.Bundle()
			if err != nil {
				return err
			}
			signingPub := crypto.Ed25519PublicKey(bundle.Identity.SigningKey)
			fmt.Fprintf(cmd.OutOrStdout(), "registration_id=%d signed_pre_keys=%d one_time_pre_keys=%d\n",
				id.RegistrationID, signedPreKeys, id.OneTimePreKeyCount())
			fmt.Fprintf(cmd.OutOrStdout(), "fingerprint=%s\n", crypto.Thumbprint(signingPub))
			return nil
		},
	}
	cmd.Flags().Uint32Var(&registrationID, "registration-id", 1, "registration id for the new identity")
	cmd.Flags().IntVar(&signedPreKeys, "signed-pre-keys", 1, "number of signed pre-keys to generate")
	cmd.Flags().IntVar(&oneTimePreKeys, "one-time-pre-keys", 1, "number of one-time pre-keys to generate")
	return cmd
}
