package modes

import "crypto/cipher"

// ECB transforms len(src)/16 independent blocks from src into dst.
func ECB(dir Direction, b cipher.Block, dst, src []byte) error {
	if err := checkBlocks(dst, src); err != nil {
		return err
	}

	crypt := transform(dir, b)
	for len(src) > 0 {
		crypt(dst[:BlockSize], src[:BlockSize])
		src = src[BlockSize:]
		dst = dst[BlockSize:]
	}
	return nil
}
