// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeline

// Key registry for the shared store. Data flows strictly forward: each stage
// reads keys written by earlier stages and writes exactly one output key.
const (
	// KeyTopic is the user-supplied blog topic, written at run start.
	KeyTopic = "topic"

	// KeyCodebaseContext is the optional directory digest, read by the
	// planning and writing stages.
	KeyCodebaseContext = "codebase_context"

	// KeyBlogOutline is the planning stage's markdown outline, read by the
	// writing stage.
	KeyBlogOutline = "blog_outline"

	// KeyBlogPost is the blog post markdown, written by the writing stage
	// and overwritten by the editing stage.
	KeyBlogPost = "blog_post"

	// KeyUserFeedback is the latest edit-loop feedback, read by the editing
	// stage.
	KeyUserFeedback = "user_feedback"

	// KeySocialMediaPosts is the optional social stage output.
	KeySocialMediaPosts = "social_media_posts"
)
