package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"duskwire/internal/chanwire"
	"duskwire/internal/identity"
	"duskwire/internal/session"
)

// handshakeCmd runs X3DH plus the first encrypt/decrypt pair between two
// in-process parties connected by a chanwire.Link (spec §4.11's "handshake
// (run X3DH + first encrypt as initiator, first decrypt as responder)").
func handshakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "Run X3DH and the first message exchange between two in-process parties",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			alice, err := identity.New(cryptoEng, 1, 1, 1)
			if err != nil {
				return fmt.Errorf("creating alice's identity: %w", err)
			}
			bob, err := identity.New(cryptoEng, 2, 1, 1)
			if err != nil {
				return fmt.Errorf("creating bob's identity: %w", err)
			}

			bundle, err := alice.Bundle()
			if err != nil {
				return fmt.Errorf("assembling alice's bundle: %w", err)
			}

			bobSession, err := session.CreateAsInitiator(cryptoEng, bob, bundle, opts)
			if err != nil {
				return fmt.Errorf("bob: x3dh initiate: %w", err)
			}

			link := chanwire.NewLink(4)
			bobEnd, aliceEnd := link.EndpointA(), link.EndpointB()

			env, err := bobSession.Encrypt([]byte("hello alice, this is bob"))
			if err != nil {
				return fmt.Errorf("bob: encrypt: %w", err)
			}
			sendEnvelope(bobEnd, env)
			fmt.Fprintln(out, "bob  -> alice : pre-key message over chanwire")

			pkm, _, err := recvEnvelope(aliceEnd)
			if err != nil {
				return fmt.Errorf("alice: decode frame: %w", err)
			}
			aliceSession, err := session.CreateAsResponder(cryptoEng, alice, *pkm, opts)
			if err != nil {
				return fmt.Errorf("alice: x3dh complete: %w", err)
			}
			plaintext, err := aliceSession.Decrypt(pkm.SignedMessage)
			if err != nil {
				return fmt.Errorf("alice: decrypt: %w", err)
			}
			fmt.Fprintf(out, "alice received: %q\n", string(plaintext))
			fmt.Fprintf(out, "bob stats:   %+v\n", bobSession.Stats())
			fmt.Fprintf(out, "alice stats: %+v\n", aliceSession.Stats())
			return nil
		},
	}
	return cmd
}
