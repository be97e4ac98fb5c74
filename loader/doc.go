// Package loader turns image files into glstate textures.
//
// A Loader decodes PNG, JPEG, GIF, BMP, TIFF and WebP files from an fs.FS,
// uploads them as level 0 of a 2D texture and keeps the textures in an LRU
// cache keyed by file name. A texture pushed out of the cache is deleted
// from its context.
//
//	l := loader.New(ctx, loader.WithFS(os.DirFS("assets")), loader.WithMipmaps(true))
//	defer l.Close()
//
//	tex, err := l.Load("brick.png")
//	if err != nil {
//	    return err
//	}
//	_ = ctx.BindTexture(glstate.Texture2D, tex)
//
// Load needs the 2D texture point free: it binds the new texture there for
// the upload and unbinds it again.
package loader
