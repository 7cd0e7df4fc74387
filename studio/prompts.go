package studio

import "fmt"

const removeBackgroundInstruction = "Isolate the main subject of this image and remove the background completely. " +
	"Return only the subject on a fully transparent background as a PNG image. " +
	"Keep the subject's edges, colors and details exactly as they are."

const altTextInstruction = "Write concise, ADA-compliant alt text for this product mockup image. " +
	"Describe the product, the printed design and the mockup style (for example flat lay, " +
	"lifestyle scene or model shot) in one or two sentences. Do not begin with \"Image of\" " +
	"or \"Picture of\". Return only the alt text."

func applyDesignInstruction(productName string) string {
	return fmt.Sprintf("The first image is a blank %[1]s mockup and the second image is a design. "+
		"Apply the design onto the %[1]s so the result looks like a photorealistic product photo: "+
		"the design must follow the product's contours and folds, pick up its shadows and lighting, "+
		"and take on the texture of the material. Keep the mockup's background, framing and product "+
		"color unchanged. Return only the final composited image.", productName)
}

func seoPrompt(productName, designDescription string) string {
	return fmt.Sprintf("You are an expert e-commerce copywriter for print-on-demand marketplaces. "+
		"Write an SEO-optimized product listing for a %s featuring this design: %s. "+
		"Use natural, buyer-focused language and include relevant search keywords.",
		productName, designDescription)
}
