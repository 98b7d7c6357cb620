// Command p521 is a small CLI around the p521 package: key generation,
// public key derivation, signing, and verification.
//
// Keys travel as PEM files, signatures as hex on stdout or raw bytes in
// files. Every flag can also come from the environment with the P521_
// prefix, so P521_KEY=key.pem replaces --key key.pem.
package main

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/smallyu/go-p521/pkg/p521"
)

var logger *zap.SugaredLogger

var (
	flagKey     string
	flagPub     string
	flagOut     string
	flagSig     string
	flagDigest  string
	flagDER     bool
	flagComp    bool
	flagLowS    bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "p521",
	Short:         "NIST P-521 keys, ECDSA signatures, and ECDH",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Bind the executing command's flags only. Flag names repeat
		// across subcommands (--key, --digest), and a single global
		// bind would leave viper reading another command's flag set,
		// letting the environment shadow an explicitly passed flag.
		// By now cobra has merged the persistent flags into
		// cmd.Flags(), so --out and --verbose are covered too.
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		logger = newLogger(viper.GetBool("verbose"))
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a private key and write it as PKCS #8 PEM",
	RunE: func(cmd *cobra.Command, args []string) error {
		priv, err := p521.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		defer priv.Zeroize()

		pemBytes, err := p521.MarshalPrivateKeyPEM(priv)
		if err != nil {
			return err
		}
		if err := writeOutput(viper.GetString("out"), pemBytes, 0o600); err != nil {
			return err
		}
		logger.Infow("generated key",
			"publicKey", hex.EncodeToString(priv.PublicKey().BytesCompressed()))
		return nil
	},
}

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Derive the public key from a private key PEM",
	RunE: func(cmd *cobra.Command, args []string) error {
		priv, err := readPrivateKey()
		if err != nil {
			return err
		}
		defer priv.Zeroize()
		pub := priv.PublicKey()

		if viper.GetBool("compressed") {
			fmt.Println(hex.EncodeToString(pub.BytesCompressed()))
			return nil
		}
		pemBytes, err := p521.MarshalPublicKeyPEM(pub)
		if err != nil {
			return err
		}
		return writeOutput(viper.GetString("out"), pemBytes, 0o644)
	},
}

var signCmd = &cobra.Command{
	Use:   "sign [file]",
	Short: "Sign a file (SHA-512) or a precomputed digest",
	Long: `Sign hashes the given file with SHA-512 and signs the digest with a
deterministic RFC 6979 nonce. With --digest, the hex argument is taken as the
digest directly and no file is read. "-" reads the message from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priv, err := readPrivateKey()
		if err != nil {
			return err
		}
		defer priv.Zeroize()

		digest, err := resolveDigest(args)
		if err != nil {
			return err
		}

		sig, err := p521.Sign(priv, digest)
		if err != nil {
			return err
		}
		if viper.GetBool("low-s") {
			sig = sig.Normalized()
		}

		encoded := sig.Bytes()
		if viper.GetBool("der") {
			encoded = sig.SerializeDER()
		}
		out := viper.GetString("out")
		if out == "" {
			fmt.Println(hex.EncodeToString(encoded))
			return nil
		}
		return writeOutput(out, encoded, 0o644)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Verify a signature over a file or digest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, err := readPublicKey()
		if err != nil {
			return err
		}
		digest, err := resolveDigest(args)
		if err != nil {
			return err
		}
		sig, err := readSignature()
		if err != nil {
			return err
		}

		if err := pub.VerifyDigest(digest, sig); err != nil {
			logger.Errorw("signature invalid", "error", err)
			return err
		}
		fmt.Println("signature valid")
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVarP(&flagOut, "out", "o", "", "Output file (default stdout)")

	pubkeyCmd.Flags().StringVarP(&flagKey, "key", "k", "", "Private key PEM file")
	pubkeyCmd.Flags().BoolVarP(&flagComp, "compressed", "c", false, "Print the compressed SEC 1 hex instead of PEM")

	signCmd.Flags().StringVarP(&flagKey, "key", "k", "", "Private key PEM file")
	signCmd.Flags().StringVar(&flagDigest, "digest", "", "Hex digest to sign instead of hashing a file")
	signCmd.Flags().BoolVar(&flagDER, "der", false, "Emit the ASN.1 DER form instead of fixed r||s")
	signCmd.Flags().BoolVar(&flagLowS, "low-s", false, "Normalize s into the lower half order")

	verifyCmd.Flags().StringVarP(&flagPub, "pub", "p", "", "Public key PEM file")
	verifyCmd.Flags().StringVarP(&flagSig, "sig", "s", "", "Signature file or hex string")
	verifyCmd.Flags().StringVar(&flagDigest, "digest", "", "Hex digest to verify instead of hashing a file")

	rootCmd.AddCommand(keygenCmd, pubkeyCmd, signCmd, verifyCmd)

	// Flags resolve through viper so the P521_ environment works as a
	// fallback. The flag bindings themselves happen per command in the
	// root PersistentPreRunE.
	viper.SetEnvPrefix("p521")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return l.Sugar()
}

func readPrivateKey() (*p521.PrivateKey, error) {
	path := viper.GetString("key")
	if path == "" {
		return nil, errors.New("no private key: pass --key or set P521_KEY")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading private key")
	}
	return p521.ParsePrivateKeyPEM(raw)
}

func readPublicKey() (*p521.PublicKey, error) {
	path := viper.GetString("pub")
	if path == "" {
		return nil, errors.New("no public key: pass --pub or set P521_PUB")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading public key")
	}
	if pub, err := p521.ParsePublicKeyPEM(raw); err == nil {
		return pub, nil
	}
	// Also accept a bare hex SEC 1 point.
	b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, errors.New("public key is neither PEM nor hex")
	}
	return p521.NewPublicKey(b)
}

func readSignature() (*p521.Signature, error) {
	arg := viper.GetString("sig")
	if arg == "" {
		return nil, errors.New("no signature: pass --sig or set P521_SIG")
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		// Not a file; try the argument itself as hex.
		raw, err = hex.DecodeString(strings.TrimSpace(arg))
		if err != nil {
			return nil, errors.New("signature is neither a file nor hex")
		}
	} else if b, decErr := hex.DecodeString(strings.TrimSpace(string(raw))); decErr == nil {
		raw = b
	}
	if sig, err := p521.ParseSignature(raw); err == nil {
		return sig, nil
	}
	return p521.ParseDERSignature(raw)
}

// resolveDigest returns the digest to operate on: the --digest hex if given,
// otherwise the SHA-512 of the named file or of stdin for "-".
func resolveDigest(args []string) ([]byte, error) {
	if d := viper.GetString("digest"); d != "" {
		digest, err := hex.DecodeString(d)
		if err != nil {
			return nil, errors.Wrap(err, "decoding digest")
		}
		return digest, nil
	}
	if len(args) == 0 {
		return nil, errors.New("no input: pass a file, \"-\" for stdin, or --digest")
	}

	var msg []byte
	var err error
	if args[0] == "-" {
		msg, err = io.ReadAll(os.Stdin)
	} else {
		msg, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading message")
	}
	digest := sha512.Sum512(msg)
	return digest[:], nil
}

func writeOutput(path string, data []byte, perm os.FileMode) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return errors.Wrap(os.WriteFile(path, data, perm), "writing output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "p521: %v\n", err)
		os.Exit(1)
	}
}
