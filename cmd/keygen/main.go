// Command keygen provisions the out-of-band key material: an RSA-2048 pair
// for session token signing and two random 256-bit keys for field
// encryption and lookup hashing. Run once per environment; the service only
// ever consumes the output, it never generates keys itself.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	outDir := flag.String("out", "config", "directory for the PEM key pair")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o700); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatalf("generate rsa key: %v", err)
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		log.Fatalf("marshal private key: %v", err)
	}
	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		log.Fatalf("marshal public key: %v", err)
	}

	if err := writePEM(filepath.Join(*outDir, "private.key"), "PRIVATE KEY", privateDER, 0o600); err != nil {
		log.Fatalf("write private key: %v", err)
	}
	if err := writePEM(filepath.Join(*outDir, "public.key"), "PUBLIC KEY", publicDER, 0o644); err != nil {
		log.Fatalf("write public key: %v", err)
	}

	fieldKey := make([]byte, 32)
	hashKey := make([]byte, 32)
	if _, err := rand.Read(fieldKey); err != nil {
		log.Fatalf("generate field key: %v", err)
	}
	if _, err := rand.Read(hashKey); err != nil {
		log.Fatalf("generate lookup hash key: %v", err)
	}

	fmt.Printf("keys written to %s\n", *outDir)
	fmt.Println("add to your environment:")
	fmt.Printf("CRYPTO_FIELD_KEY=%s\n", hex.EncodeToString(fieldKey))
	fmt.Printf("CRYPTO_LOOKUP_HASH_KEY=%s\n", hex.EncodeToString(hashKey))
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: der})
}
